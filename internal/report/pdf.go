package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/mediscan-ai/mediscan/internal/advisory"
	"github.com/mediscan-ai/mediscan/internal/analysis"
)

const disclaimerText = "This report was generated by an artificial intelligence system and is " +
	"strictly advisory in nature. It does NOT constitute a definitive medical diagnosis. " +
	"All results MUST be reviewed and validated by a qualified clinician before any " +
	"clinical decision is made. This document includes blank annotation space for " +
	"corrections and medical notes. System accuracy may vary and detection of all " +
	"medical conditions is not guaranteed; always consult a specialist for a definitive diagnosis."

const signatureText = "This document requires validation and signature by a qualified " +
	"medical professional before it can be used for clinical decisions."

// WritePDF renders the narrative report and returns the generated file path.
// includeImages is accepted for API compatibility; records carry no pixel
// payload, so no images are embedded. Pagination is two-pass: content is laid
// out first and "Page X of Y" is stamped once the total page count is known.
func WritePDF(dir string, records []analysis.Record, includeImages bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("mediscan_report_%s.pdf", time.Now().Format(timestampLayout)))

	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle("MediScan Analysis Report", false)
	pdf.SetMargins(19, 25, 19)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetDrawColor(229, 231, 235)
		pageW, _ := pdf.GetPageSize()
		pdf.Line(19, pdf.GetY(), pageW-19, pdf.GetY())
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	writeCoverPage(pdf, len(records))
	writeDisclaimerPage(pdf)
	writeSummaryPage(pdf, Summarize(records))
	for i, rec := range records {
		writeDetailPage(pdf, i+1, rec)
	}
	writeSignaturePage(pdf)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return path, nil
}

func writeCoverPage(pdf *gofpdf.Fpdf, total int) {
	pdf.AddPage()
	pdf.Ln(40)

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 14, "MEDISCAN", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(71, 85, 105)
	pdf.CellFormat(0, 10, "AI-Assisted Medical Image Diagnosis", "", 1, "C", false, 0, "")
	pdf.Ln(20)

	now := time.Now()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(51, 65, 85)
	pdf.CellFormat(0, 8, "MEDICAL IMAGE ANALYSIS REPORT", "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Generated on: "+now.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Time: "+now.Format("15:04:05"), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Studies analyzed: %d", total), "", 1, "C", false, 0, "")
}

func writeDisclaimerPage(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	writeHeading(pdf, "IMPORTANT NOTICE")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(220, 38, 38)
	pdf.SetDrawColor(220, 38, 38)
	pdf.SetFillColor(254, 242, 242)
	pdf.MultiCell(0, 6, disclaimerText, "1", "C", true)
}

func writeSummaryPage(pdf *gofpdf.Fpdf, s Summary) {
	pdf.AddPage()
	writeHeading(pdf, "EXECUTIVE SUMMARY")

	rows := [][2]string{
		{"Total analyses", fmt.Sprintf("%d", s.Total)},
		{"Successful analyses", fmt.Sprintf("%d", s.Successful)},
		{"Failed analyses", fmt.Sprintf("%d", s.Failed)},
		{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
		{"Predominant domain", displayOrDash(strings.ToUpper(s.PredominantDomain))},
		{"Critical findings", fmt.Sprintf("%d", s.Critical)},
		{"Normal findings", fmt.Sprintf("%d", s.NormalCount)},
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(37, 99, 235)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(80, 9, "Metric", "1", 0, "L", true, 0, "")
	pdf.CellFormat(80, 9, "Value", "1", 1, "L", true, 0, "")

	pdf.SetTextColor(51, 65, 85)
	for i, row := range rows {
		fill := i%2 == 1
		pdf.SetFillColor(248, 250, 252)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 8, row[0], "1", 0, "L", fill, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(80, 8, row[1], "1", 1, "L", fill, 0, "")
	}
}

func writeDetailPage(pdf *gofpdf.Fpdf, index int, rec analysis.Record) {
	pdf.AddPage()
	writeHeading(pdf, fmt.Sprintf("STUDY #%d", index))

	if !rec.Success {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(220, 38, 38)
		pdf.CellFormat(0, 8, "ANALYSIS ERROR", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(51, 65, 85)
		pdf.MultiCell(0, 6, "File: "+displayOrDash(rec.FileName), "", "L", false)
		pdf.MultiCell(0, 6, "Error: "+rec.Error, "", "L", false)
		return
	}

	// Identity block.
	identity := [][2]string{
		{"File", displayOrDash(rec.FileName)},
		{"Analyzed at", formatTimestamp(rec.Timestamp)},
		{"Domain", strings.ToUpper(rec.Domain)},
		{"Analysis ID", idPrefix(rec.ID) + "..."},
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(51, 65, 85)
	for _, row := range identity {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(110, 7, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Diagnosis block, tinted by severity.
	adv := rec.Advisory
	if adv == nil {
		adv = &advisory.Entry{Title: strings.ToUpper(rec.Prediction)}
	}
	r, g, b := severityColor(adv.Severity)
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(50, 9, "PRIMARY DIAGNOSIS", "1", 0, "L", true, 0, "")
	pdf.SetTextColor(51, 65, 85)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(110, 9, adv.Title, "1", 1, "L", false, 0, "")

	diagnosis := [][2]string{
		{"Model confidence", fmt.Sprintf("%.1f%%", rec.Confidence)},
		{"Severity level", string(adv.Severity)},
		{"Urgency", string(adv.Urgency)},
	}
	for _, row := range diagnosis {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(110, 7, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	writeParagraph(pdf, "Clinical Description:", adv.Description)
	writeParagraph(pdf, "Recommendations:", adv.Recommendation)

	// Probability table, descending.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, "Detailed Probability Analysis:", "", 1, "L", false, 0, "")
	pdf.SetFillColor(71, 85, 105)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(55, 8, "Classification", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Probability", "1", 0, "L", true, 0, "")
	pdf.CellFormat(65, 8, "Interpretation", "1", 1, "L", true, 0, "")

	pdf.SetTextColor(51, 65, 85)
	pdf.SetFont("Helvetica", "", 10)
	for _, cls := range sortedByProbability(rec.Distribution) {
		prob := rec.Distribution[cls]
		pdf.CellFormat(55, 7, strings.ToUpper(cls), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f%%", prob), "1", 0, "L", false, 0, "")
		pdf.CellFormat(65, 7, probabilityInterpretation(prob), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Blank annotation space for the reviewing clinician.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, "CLINICIAN NOTES:", "", 1, "L", false, 0, "")
	pdf.SetFillColor(250, 250, 250)
	for i := 0; i < 5; i++ {
		pdf.CellFormat(160, 10, "", "1", 1, "L", true, 0, "")
	}
}

func writeSignaturePage(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	writeHeading(pdf, "MEDICAL VALIDATION")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(51, 65, 85)
	pdf.MultiCell(0, 6, signatureText, "", "L", false)
	pdf.Ln(16)

	fields := []string{"Clinician name:", "Specialty:", "License number:", "Review date:", "Signature:"}
	for _, field := range fields {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 12, field, "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(100, 12, strings.Repeat("_", 45), "", 1, "L", false, 0, "")
	}
}

func writeHeading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func writeParagraph(pdf *gofpdf.Fpdf, title, body string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(51, 65, 85)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, body, "", "J", false)
	pdf.Ln(3)
}

// sortedByProbability orders classes by descending probability; equal
// probabilities keep the fixed class ordering.
func sortedByProbability(dist map[string]float64) []string {
	classes := make([]string, 0, len(dist))
	for _, cls := range advisory.AllClasses {
		if _, ok := dist[cls]; ok {
			classes = append(classes, cls)
		}
	}
	// Distribution keys are always drawn from the fixed class set; anything
	// else would indicate a corrupted record, so it is simply skipped.
	sort.SliceStable(classes, func(i, j int) bool {
		return dist[classes[i]] > dist[classes[j]]
	})
	return classes
}

func severityColor(s advisory.Severity) (int, int, int) {
	switch s {
	case advisory.SeverityHigh:
		return 220, 38, 38 // red
	case advisory.SeverityMedium:
		return 245, 158, 11 // orange
	case advisory.SeverityLow:
		return 16, 185, 129 // green
	}
	return 100, 116, 139 // grey
}

func displayOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func probabilityInterpretation(p float64) string {
	switch {
	case p >= 80:
		return "Very high probability"
	case p >= 60:
		return "High probability"
	case p >= 40:
		return "Moderate probability"
	case p >= 20:
		return "Low probability"
	default:
		return "Very low probability"
	}
}

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mediscan-ai/mediscan/internal/advisory"
	"github.com/mediscan-ai/mediscan/internal/analysis"
)

const timestampLayout = "20060102_150405"

// WriteCSV renders the detail CSV and its companion statistical summary,
// returning both paths. Filenames are timestamp-suffixed to avoid collisions.
func WriteCSV(dir string, records []analysis.Record) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create export dir: %w", err)
	}

	suffix := time.Now().Format(timestampLayout)
	detailPath := filepath.Join(dir, fmt.Sprintf("mediscan_report_%s.csv", suffix))
	summaryPath := filepath.Join(dir, fmt.Sprintf("mediscan_summary_%s.csv", suffix))

	if err := writeDetailCSV(detailPath, records); err != nil {
		return "", "", err
	}
	if err := writeSummaryCSV(summaryPath, records); err != nil {
		return "", "", err
	}
	return detailPath, summaryPath, nil
}

func writeDetailCSV(path string, records []analysis.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create detail csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"Analysis_ID", "Timestamp", "File", "Domain", "Success",
		"Diagnosis", "Confidence_%", "Severity", "Urgency",
		"Advisory_Title", "Clinical_Description", "Recommendations",
	}
	for _, cls := range advisory.AllClasses {
		header = append(header, "Probability_"+strings.ToUpper(cls)+"_%")
	}
	header = append(header, "Error")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row,
			idPrefix(r.ID),
			formatTimestamp(r.Timestamp),
			r.FileName,
			strings.ToUpper(r.Domain),
			yesNo(r.Success),
			strings.ToUpper(r.Prediction),
			formatConfidence(r),
		)
		if r.Advisory != nil {
			row = append(row, string(r.Advisory.Severity), string(r.Advisory.Urgency),
				r.Advisory.Title, r.Advisory.Description, r.Advisory.Recommendation)
		} else {
			row = append(row, "", "", "", "", "")
		}
		for _, cls := range advisory.AllClasses {
			if prob, ok := r.Distribution[cls]; ok {
				row = append(row, fmt.Sprintf("%.2f", prob))
			} else {
				row = append(row, "")
			}
		}
		if r.Success {
			row = append(row, "")
		} else {
			row = append(row, r.Error)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func writeSummaryCSV(path string, records []analysis.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary csv: %w", err)
	}
	defer f.Close()

	s := Summarize(records)
	w := csv.NewWriter(f)

	rows := [][]string{
		{"STATISTICAL SUMMARY - MEDISCAN"},
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
		{},
		{"GENERAL STATISTICS"},
		{"Metric", "Value"},
		{"Total analyses", fmt.Sprintf("%d", s.Total)},
		{"Successful analyses", fmt.Sprintf("%d", s.Successful)},
		{"Failed analyses", fmt.Sprintf("%d", s.Failed)},
		{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
		{},
		{"BY DOMAIN"},
		{"Domain", "Count", "Percentage"},
		{"Brain", fmt.Sprintf("%d", s.DomainCounts["brain"]), fmt.Sprintf("%.1f%%", s.DomainPercents["brain"])},
		{"Chest", fmt.Sprintf("%d", s.DomainCounts["chest"]), fmt.Sprintf("%.1f%%", s.DomainPercents["chest"])},
		{},
		{"BY SEVERITY LEVEL"},
		{"Level", "Count", "Percentage"},
	}
	for _, sev := range []advisory.Severity{advisory.SeverityHigh, advisory.SeverityMedium, advisory.SeverityLow} {
		rows = append(rows, []string{
			string(sev),
			fmt.Sprintf("%d", s.SeverityCounts[sev]),
			fmt.Sprintf("%.1f%%", s.SeverityPercents[sev]),
		})
	}

	rows = append(rows, []string{}, []string{"DIAGNOSIS DISTRIBUTION"}, []string{"Diagnosis", "Count", "Percentage"})
	for _, lc := range s.LabelFrequency {
		percent := 0.0
		if s.Total > 0 {
			percent = float64(lc.Count) / float64(s.Total) * 100
		}
		rows = append(rows, []string{strings.ToUpper(lc.Label), fmt.Sprintf("%d", lc.Count), fmt.Sprintf("%.1f%%", percent)})
	}

	if s.ConfidenceSamples > 0 {
		rows = append(rows, []string{},
			[]string{"CONFIDENCE STATISTICS"},
			[]string{"Metric", "Value"},
			[]string{"Average confidence", fmt.Sprintf("%.2f%%", s.ConfidenceMean)},
			[]string{"Minimum confidence", fmt.Sprintf("%.2f%%", s.ConfidenceMin)},
			[]string{"Maximum confidence", fmt.Sprintf("%.2f%%", s.ConfidenceMax)},
		)
	}

	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	return w.Error()
}

func idPrefix(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatConfidence(r analysis.Record) string {
	if !r.Success || r.Confidence <= 0 {
		return "0"
	}
	return fmt.Sprintf("%.2f", r.Confidence)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

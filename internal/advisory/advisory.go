// Package advisory holds the fixed class lists and the static clinical
// advisory table. The table is process-wide constant data: it is built once
// and only ever read.
package advisory

// Severity ranks how serious a finding is.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Urgency tags how quickly a finding should be acted on.
type Urgency string

const (
	UrgencyRoutine   Urgency = "ROUTINE"
	UrgencyScheduled Urgency = "SCHEDULED"
	UrgencyPriority  Urgency = "PRIORITY"
	UrgencyUrgent    Urgency = "URGENT"
)

// Entry is the advisory content attached to one predicted label.
type Entry struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Severity       Severity `json:"severity"`
	Urgency        Urgency  `json:"urgency"`
}

// BrainClasses and ChestClasses fix the per-domain class orderings. Order
// matters: model output indices and argmax tie-breaks follow it.
var (
	BrainClasses = []string{"glioma", "meningioma", "normal", "pituitary"}
	ChestClasses = []string{"normal", "pneumonia", "covid19", "tuberculosis", "lung_opacity"}
)

// AllClasses is the fixed union ordering used for report columns across both
// domains ("normal" appears once).
var AllClasses = []string{
	"glioma", "meningioma", "normal", "pituitary",
	"pneumonia", "covid19", "tuberculosis", "lung_opacity",
}

// FallbackLabel is the baseline entry used when a label is missing from the
// table.
const FallbackLabel = "normal"

var table = map[string]Entry{
	"glioma": {
		Title:          "Glioma Detected",
		Description:    "Features compatible with a cerebral glioma are observed. Gliomas are tumors originating in the glial cells of the brain.",
		Recommendation: "Requires urgent neurosurgical evaluation. Contrast MRI and biopsy are recommended for histological classification. Oncology consultation.",
		Severity:       SeverityHigh,
		Urgency:        UrgencyUrgent,
	},
	"meningioma": {
		Title:          "Meningioma Detected",
		Description:    "Lesion compatible with a meningioma, a generally benign tumor arising from the meninges.",
		Recommendation: "Neurosurgical evaluation. Periodic imaging follow-up according to size and location.",
		Severity:       SeverityMedium,
		Urgency:        UrgencyScheduled,
	},
	"normal": {
		Title:          "Normal Study",
		Description:    "No significant pathological findings are observed in the imaging study.",
		Recommendation: "Continue routine clinical follow-up as medically indicated.",
		Severity:       SeverityLow,
		Urgency:        UrgencyRoutine,
	},
	"pituitary": {
		Title:          "Pituitary Adenoma",
		Description:    "Lesion in the sellar region compatible with a pituitary adenoma. These tumors are generally benign.",
		Recommendation: "Endocrinology and neurosurgery evaluation. Full hormonal profile and visual field testing.",
		Severity:       SeverityMedium,
		Urgency:        UrgencyPriority,
	},
	"pneumonia": {
		Title:          "Pneumonia Detected",
		Description:    "Radiological findings compatible with an active pneumonic process.",
		Recommendation: "Antibiotic treatment per protocol. Radiological control in 48-72 hours. Immediate clinical evaluation.",
		Severity:       SeverityMedium,
		Urgency:        UrgencyPriority,
	},
	"covid19": {
		Title:          "Findings Compatible with COVID-19",
		Description:    "Bilateral ground-glass opacity pattern compatible with SARS-CoV-2 viral pneumonia.",
		Recommendation: "Immediate isolation. Treatment per COVID-19 protocol. Monitor oxygen saturation and warning signs.",
		Severity:       SeverityHigh,
		Urgency:        UrgencyUrgent,
	},
	"tuberculosis": {
		Title:          "Findings Suggestive of Tuberculosis",
		Description:    "Radiological pattern compatible with active pulmonary tuberculosis.",
		Recommendation: "Respiratory isolation. Urgent smear microscopy and culture. Start antituberculous treatment per DOTS protocol.",
		Severity:       SeverityHigh,
		Urgency:        UrgencyUrgent,
	},
	"lung_opacity": {
		Title:          "Pulmonary Opacity",
		Description:    "Nonspecific pulmonary opacities requiring clinical correlation.",
		Recommendation: "Complete clinical evaluation. Consider chest CT for better characterization. Follow up according to evolution.",
		Severity:       SeverityMedium,
		Urgency:        UrgencyScheduled,
	},
}

// Lookup returns the advisory entry for label, falling back to the baseline
// "normal" entry when the label is not in the table.
func Lookup(label string) Entry {
	if e, ok := table[label]; ok {
		return e
	}
	return table[FallbackLabel]
}

// Known reports whether label has a dedicated table entry.
func Known(label string) bool {
	_, ok := table[label]
	return ok
}

// ClassesFor returns the class ordering for a domain name ("brain" or
// "chest"). Unknown domains return nil.
func ClassesFor(domain string) []string {
	switch domain {
	case "brain":
		return BrainClasses
	case "chest":
		return ChestClasses
	}
	return nil
}

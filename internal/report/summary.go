// Package report renders batches of analysis records as CSV or PDF documents.
// Both forms derive their figures from the single Summarize implementation so
// the statistics are numerically identical across outputs.
package report

import (
	"sort"

	"github.com/mediscan-ai/mediscan/internal/advisory"
	"github.com/mediscan-ai/mediscan/internal/analysis"
)

// LabelCount is one entry of the diagnosis frequency ranking.
type LabelCount struct {
	Label string
	Count int
}

// Summary aggregates a record batch. Percentages are 0 when the batch is
// empty; nothing here divides by zero.
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	SuccessRate float64

	DomainCounts   map[string]int
	DomainPercents map[string]float64

	SeverityCounts   map[advisory.Severity]int
	SeverityPercents map[advisory.Severity]float64

	// LabelFrequency is sorted by descending count; ties keep the order in
	// which labels were first seen in the batch.
	LabelFrequency []LabelCount

	// PredominantDomain is the domain with the most records; a tie resolves
	// to the domain encountered first.
	PredominantDomain string

	Critical    int // records whose advisory severity is HIGH
	NormalCount int // successful non-critical records predicted "normal"

	ConfidenceMean    float64
	ConfidenceMin     float64
	ConfidenceMax     float64
	ConfidenceSamples int
}

// Summarize computes the shared statistics for a record batch.
func Summarize(records []analysis.Record) Summary {
	s := Summary{
		DomainCounts:     make(map[string]int),
		DomainPercents:   make(map[string]float64),
		SeverityCounts:   make(map[advisory.Severity]int),
		SeverityPercents: make(map[advisory.Severity]float64),
	}
	s.Total = len(records)

	labelIndex := make(map[string]int)
	var labelOrder []LabelCount
	var domainOrder []string

	var confSum float64
	for _, r := range records {
		if !r.Success {
			s.Failed++
			continue
		}
		s.Successful++

		if r.Domain != "" {
			if _, seen := s.DomainCounts[r.Domain]; !seen {
				domainOrder = append(domainOrder, r.Domain)
			}
			s.DomainCounts[r.Domain]++
		}

		if r.Advisory != nil {
			s.SeverityCounts[r.Advisory.Severity]++
			if r.Advisory.Severity == advisory.SeverityHigh {
				s.Critical++
			} else if r.Prediction == "normal" {
				s.NormalCount++
			}
		}

		if r.Prediction != "" {
			if idx, seen := labelIndex[r.Prediction]; seen {
				labelOrder[idx].Count++
			} else {
				labelIndex[r.Prediction] = len(labelOrder)
				labelOrder = append(labelOrder, LabelCount{Label: r.Prediction, Count: 1})
			}
		}

		if r.Confidence > 0 {
			if s.ConfidenceSamples == 0 {
				s.ConfidenceMin = r.Confidence
				s.ConfidenceMax = r.Confidence
			} else {
				if r.Confidence < s.ConfidenceMin {
					s.ConfidenceMin = r.Confidence
				}
				if r.Confidence > s.ConfidenceMax {
					s.ConfidenceMax = r.Confidence
				}
			}
			confSum += r.Confidence
			s.ConfidenceSamples++
		}
	}

	if s.Total > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.Total) * 100
		for domain, count := range s.DomainCounts {
			s.DomainPercents[domain] = float64(count) / float64(s.Total) * 100
		}
		for sev, count := range s.SeverityCounts {
			s.SeverityPercents[sev] = float64(count) / float64(s.Total) * 100
		}
	}
	if s.ConfidenceSamples > 0 {
		s.ConfidenceMean = confSum / float64(s.ConfidenceSamples)
	}

	// Descending by count; stable sort preserves first-seen order on ties.
	sort.SliceStable(labelOrder, func(i, j int) bool {
		return labelOrder[i].Count > labelOrder[j].Count
	})
	s.LabelFrequency = labelOrder

	best := -1
	for _, domain := range domainOrder {
		if s.DomainCounts[domain] > best {
			best = s.DomainCounts[domain]
			s.PredominantDomain = domain
		}
	}

	return s
}

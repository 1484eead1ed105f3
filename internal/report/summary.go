package report

import (
	"time"

	"github.com/nao1215/storefront/internal/model"
)

// Summary aggregates the reports of a batch render.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Pages is the number of reports.
	Pages int `json:"pages"`

	// ByType counts pages per page type name.
	ByType map[string]int `json:"by_type"`

	// Hints is the total number of preload hints.
	Hints int `json:"hints"`

	// Bytes is the total rendered size.
	Bytes int `json:"bytes"`

	// Failed lists the URLs of pages that stopped with an error or had step
	// errors.
	Failed []string `json:"failed,omitempty"`

	// Reports are the summarized reports, in input order.
	Reports []*model.RenderReport `json:"reports"`
}

// NewSummary builds the summary of reports. Nil reports are skipped.
func NewSummary(reports []*model.RenderReport) *Summary {
	s := &Summary{
		GeneratedAt: time.Now(),
		ByType:      make(map[string]int),
		Reports:     make([]*model.RenderReport, 0, len(reports)),
	}
	for _, r := range reports {
		if r == nil {
			continue
		}
		s.Pages++
		s.ByType[r.PageType.String()]++
		s.Hints += r.HintCount()
		s.Bytes += r.Size
		if r.HasErrors() {
			s.Failed = append(s.Failed, r.URL)
		}
		s.Reports = append(s.Reports, r)
	}
	return s
}

// HasFailures reports whether any page failed.
func (s *Summary) HasFailures() bool {
	return len(s.Failed) > 0
}

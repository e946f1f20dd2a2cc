package services

import (
	"github.com/PathwayEdu/session-service/internal/models"
)

// SectionBuilder turns quota table cells into the ordered section list one
// attempt is built from.
type SectionBuilder struct {
	sampler *Sampler
}

func NewSectionBuilder(sampler *Sampler) *SectionBuilder {
	return &SectionBuilder{sampler: sampler}
}

// Build iterates the quota table in declared order, sampling per cell. Cells
// that yield no questions are dropped entirely; the output order is exactly
// quota order restricted to non-empty cells.
func (b *SectionBuilder) Build(bank []*models.Question, table models.QuotaTable) []models.Section {
	sections := make([]models.Section, 0, len(table))
	for _, cell := range table {
		sampled := b.sampler.Sample(bank, cell)
		if len(sampled) == 0 {
			continue
		}

		questions := make([]models.Question, len(sampled))
		for i, q := range sampled {
			questions[i] = *q
		}

		sections = append(sections, models.Section{
			ID:          cell.SectionID(),
			Title:       cell.SectionTitle,
			Description: cell.SectionDescription,
			Questions:   questions,
		})
	}
	return sections
}

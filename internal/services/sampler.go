package services

import (
	"math/rand"

	"github.com/PathwayEdu/session-service/internal/models"
)

// Sampler draws a randomized, size-bounded question subset per quota cell.
// The random source is injected so tests can seed it; sampling itself is a
// pure function of (bank, cell, rng).
type Sampler struct {
	rng *rand.Rand
}

func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample filters the bank to the cell's eligible questions, shuffles them
// uniformly and truncates to the cell's sample size. Fewer eligible questions
// than the sample size returns all of them; an empty eligible set returns an
// empty slice, never an error.
func (s *Sampler) Sample(bank []*models.Question, cell models.QuotaCell) []*models.Question {
	eligible := make([]*models.Question, 0, len(bank))
	for _, q := range bank {
		if !s.matches(q, cell) {
			continue
		}
		if models.IsLikertQuizSubcategory(q.QuizSubcategoryID) {
			// Likert groups are answered on a scale; stored choices are
			// irrelevant and their absence does not disqualify. The tag goes
			// on a copy so the shared bank record stays untouched.
			likert := *q
			likert.Type = models.Likert
			eligible = append(eligible, &likert)
			continue
		}
		if q.Type == models.MultipleChoice && len(q.Choices) > 0 {
			eligible = append(eligible, q)
		}
	}

	// Fisher-Yates over the whole eligible set keeps every permutation
	// equally likely before truncation.
	s.rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	if cell.SampleSize >= 0 && len(eligible) > cell.SampleSize {
		eligible = eligible[:cell.SampleSize]
	}
	return eligible
}

func (s *Sampler) matches(q *models.Question, cell models.QuotaCell) bool {
	if q.CategoryID != cell.CategoryID {
		return false
	}
	if cell.SubcategoryID == nil {
		return true
	}
	return q.SubcategoryID != nil && *q.SubcategoryID == *cell.SubcategoryID
}

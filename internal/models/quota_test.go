package models

import "testing"

func TestSectionID(t *testing.T) {
	sub := uint(2)
	tests := []struct {
		name string
		cell QuotaCell
		want string
	}{
		{"category only", QuotaCell{CategoryID: 1}, "cat:1"},
		{"with subcategory", QuotaCell{CategoryID: 3, SubcategoryID: &sub}, "cat:3:sub:2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.SectionID(); got != tt.want {
				t.Errorf("SectionID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultQuotaTableSectionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, cell := range DefaultQuotaTable {
		id := cell.SectionID()
		if seen[id] {
			t.Errorf("duplicate section id %q", id)
		}
		seen[id] = true
	}
}

func TestIsLikertQuizSubcategory(t *testing.T) {
	in := uint(1)
	out := uint(99)

	if IsLikertQuizSubcategory(nil) {
		t.Error("nil id reported as likert group")
	}
	if !IsLikertQuizSubcategory(&in) {
		t.Error("id 1 not reported as likert group")
	}
	if IsLikertQuizSubcategory(&out) {
		t.Error("id 99 reported as likert group")
	}
}

func TestQuestionEligible(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want bool
	}{
		{"multiple choice with choices", Question{Type: MultipleChoice, Choices: []Choice{{ID: 1}}}, true},
		{"multiple choice without choices", Question{Type: MultipleChoice}, false},
		{"likert without choices", Question{Type: Likert}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

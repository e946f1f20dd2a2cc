package models

import "fmt"

// QuotaCell maps one (category, optional subcategory) to a target sample size
// and the section label it is presented under. The quota table is static
// configuration; its declared order is the section presentation order.
type QuotaCell struct {
	CategoryID         uint   `json:"category_id" validate:"required"`
	SubcategoryID      *uint  `json:"subcategory_id"`
	SampleSize         int    `json:"sample_size" validate:"min=0"`
	SectionTitle       string `json:"section_title" validate:"required,max=200"`
	SectionDescription string `json:"section_description" validate:"max=2000"`
}

// SectionID derives the stable section key for this cell. Cells are unique on
// (category, subcategory), so the derived ids never collide.
func (c QuotaCell) SectionID() string {
	if c.SubcategoryID != nil {
		return fmt.Sprintf("cat:%d:sub:%d", c.CategoryID, *c.SubcategoryID)
	}
	return fmt.Sprintf("cat:%d", c.CategoryID)
}

type QuotaTable []QuotaCell

// LikertQuizSubcategories is the fixed set of quiz-subcategory ids whose
// questions are answered on an agreement scale instead of discrete choices.
// Questions in these groups are eligible with or without stored choices.
var LikertQuizSubcategories = map[uint]bool{
	1: true, // self-assessment: interests
	2: true, // self-assessment: work style
	3: true, // self-assessment: values
}

// IsLikertQuizSubcategory reports whether a question belongs to a Likert-scale
// group.
func IsLikertQuizSubcategory(id *uint) bool {
	if id == nil {
		return false
	}
	return LikertQuizSubcategories[*id]
}

// DefaultQuotaTable is the platform's standard career-exploration assessment.
// Declared order is the order sections are presented in.
var DefaultQuotaTable = QuotaTable{
	{CategoryID: 1, SampleSize: 10, SectionTitle: "Interests",
		SectionDescription: "How much do these activities appeal to you?"},
	{CategoryID: 2, SampleSize: 10, SectionTitle: "Work Style",
		SectionDescription: "How do you prefer to get things done?"},
	{CategoryID: 3, SubcategoryID: uintRef(1), SampleSize: 8, SectionTitle: "Verbal Reasoning",
		SectionDescription: "Choose the best answer for each question."},
	{CategoryID: 3, SubcategoryID: uintRef(2), SampleSize: 8, SectionTitle: "Numerical Reasoning",
		SectionDescription: "Choose the best answer for each question."},
	{CategoryID: 4, SampleSize: 6, SectionTitle: "Values",
		SectionDescription: "What matters most to you in a future career?"},
}

func uintRef(v uint) *uint { return &v }

package models

import (
	"time"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	Likert         QuestionType = "likert"
)

// Question is an immutable bank record. Category/subcategory ids are plain
// columns resolved at the bank boundary; nothing downstream reaches through
// nested relations to find them.
type Question struct {
	ID   uint         `json:"id" gorm:"primaryKey"`
	Type QuestionType `json:"type" gorm:"not null;index"`
	Text string       `json:"text" gorm:"type:text;not null" validate:"required"`

	// Categorization
	CategoryID    uint  `json:"category_id" gorm:"not null;index"`
	SubcategoryID *uint `json:"subcategory_id" gorm:"index"`
	// QuizSubcategoryID is a finer grouping only some categories use; the
	// Likert designation is keyed on it.
	QuizSubcategoryID *uint `json:"quiz_subcategory_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Category *AssessmentCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Choices  []Choice            `json:"choices,omitempty" gorm:"foreignKey:QuestionID"`
}

type Choice struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"type:text;not null" validate:"required"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Order      int    `json:"order" gorm:"default:0"`
}

type AssessmentCategory struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subcategories []AssessmentSubcategory `json:"subcategories,omitempty" gorm:"foreignKey:CategoryID"`
}

type AssessmentSubcategory struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CategoryID uint   `json:"category_id" gorm:"not null;index"`
	Name       string `json:"name" gorm:"not null;size:100" validate:"required,max=100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Eligible reports whether a bank record may be served at all. A
// multiple-choice question without choices cannot be answered and is filtered
// out during sampling; Likert questions need no choices.
func (q *Question) Eligible() bool {
	if q.Type == Likert {
		return true
	}
	return len(q.Choices) > 0
}

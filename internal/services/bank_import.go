package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/PathwayEdu/session-service/internal/models"
	"github.com/PathwayEdu/session-service/internal/repositories"
	"github.com/PathwayEdu/session-service/internal/validator"
)

// Workbook layout: one sheet named "Questions", header row, columns
// category_id | subcategory_id | quiz_subcategory_id | type | text | choices.
// Choices are pipe-separated; a leading '*' marks the correct one.
const importSheet = "Questions"

type bankImportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewBankImportService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) BankImportService {
	return &bankImportService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *bankImportService) ImportQuestions(ctx context.Context, r io.Reader, userID string) (*ImportResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check importer role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(userID, "question_bank", "import", "admin role required")
	}

	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(importSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", importSheet, err)
	}

	result := &ImportResult{}
	var questions []*models.Question

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		question, warn := s.parseRow(i+1, row)
		if question == nil {
			result.RowsSkipped++
			if warn != "" {
				result.Warnings = append(result.Warnings, warn)
			}
			continue
		}
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.QuestionBank().CreateBatch(ctx, nil, questions); err != nil {
			return nil, fmt.Errorf("failed to store imported questions: %w", err)
		}
	}
	result.QuestionsImported = len(questions)

	s.logger.Info("Question bank import completed",
		"imported", result.QuestionsImported,
		"skipped", result.RowsSkipped,
		"user_id", userID)

	return result, nil
}

func (s *bankImportService) parseRow(rowNum int, row []string) (*models.Question, string) {
	if len(row) < 5 {
		return nil, fmt.Sprintf("row %d: expected at least 5 columns, got %d", rowNum, len(row))
	}

	categoryID, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return nil, fmt.Sprintf("row %d: invalid category id %q", rowNum, row[0])
	}

	question := &models.Question{
		CategoryID: uint(categoryID),
		Type:       models.QuestionType(strings.TrimSpace(row[3])),
		Text:       strings.TrimSpace(row[4]),
	}

	if sub := strings.TrimSpace(row[1]); sub != "" {
		id, err := strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("row %d: invalid subcategory id %q", rowNum, sub)
		}
		subID := uint(id)
		question.SubcategoryID = &subID
	}
	if quizSub := strings.TrimSpace(row[2]); quizSub != "" {
		id, err := strconv.ParseUint(quizSub, 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("row %d: invalid quiz subcategory id %q", rowNum, quizSub)
		}
		quizSubID := uint(id)
		question.QuizSubcategoryID = &quizSubID
	}

	switch question.Type {
	case models.MultipleChoice:
		if len(row) < 6 || strings.TrimSpace(row[5]) == "" {
			return nil, fmt.Sprintf("row %d: multiple-choice question without choices", rowNum)
		}
		for order, raw := range strings.Split(row[5], "|") {
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			choice := models.Choice{Text: text, Order: order}
			if strings.HasPrefix(text, "*") {
				choice.Text = strings.TrimSpace(strings.TrimPrefix(text, "*"))
				choice.IsCorrect = true
			}
			question.Choices = append(question.Choices, choice)
		}
		if len(question.Choices) == 0 {
			return nil, fmt.Sprintf("row %d: multiple-choice question without choices", rowNum)
		}
	case models.Likert:
		// Likert questions carry no choices.
	default:
		return nil, fmt.Sprintf("row %d: unknown question type %q", rowNum, question.Type)
	}

	if question.Text == "" {
		return nil, fmt.Sprintf("row %d: empty question text", rowNum)
	}

	return question, ""
}

package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/PathwayEdu/session-service/internal/models"
	"github.com/PathwayEdu/session-service/internal/validator"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(importSheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	header := []interface{}{"category_id", "subcategory_id", "quiz_subcategory_id", "type", "text", "choices"}
	if err := f.SetSheetRow(importSheet, "A1", &header); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		row := row
		if err := f.SetSheetRow(importSheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write workbook: %v", err)
	}
	return &buf
}

func newImportFixture(t *testing.T) (BankImportService, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	repo.users.roles["admin-1"] = models.RoleAdmin
	repo.users.roles["student-1"] = models.RoleStudent
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBankImportService(repo, logger, validator.New()), repo
}

func TestImportQuestions(t *testing.T) {
	svc, repo := newImportFixture(t)

	workbook := buildWorkbook(t, [][]interface{}{
		{"1", "", "", "multiple_choice", "Pick one", "*first|second|third"},
		{"3", "2", "", "multiple_choice", "Numerical", "*1|2"},
		{"2", "", "1", "likert", "I enjoy teamwork", ""},
	})

	result, err := svc.ImportQuestions(context.Background(), workbook, "admin-1")
	if err != nil {
		t.Fatalf("ImportQuestions: %v", err)
	}
	if result.QuestionsImported != 3 {
		t.Errorf("imported = %d, want 3", result.QuestionsImported)
	}
	if result.RowsSkipped != 0 {
		t.Errorf("skipped = %d, want 0", result.RowsSkipped)
	}

	created := repo.bank.created
	if len(created) != 3 {
		t.Fatalf("stored = %d, want 3", len(created))
	}

	first := created[0]
	if first.CategoryID != 1 || first.Type != models.MultipleChoice {
		t.Errorf("unexpected first question: %+v", first)
	}
	if len(first.Choices) != 3 {
		t.Fatalf("choices = %d, want 3", len(first.Choices))
	}
	if !first.Choices[0].IsCorrect || first.Choices[0].Text != "first" {
		t.Errorf("starred choice not marked correct: %+v", first.Choices[0])
	}
	if first.Choices[1].IsCorrect {
		t.Error("unstarred choice marked correct")
	}

	second := created[1]
	if second.SubcategoryID == nil || *second.SubcategoryID != 2 {
		t.Errorf("subcategory not parsed: %+v", second.SubcategoryID)
	}

	third := created[2]
	if third.Type != models.Likert {
		t.Errorf("type = %q, want likert", third.Type)
	}
	if third.QuizSubcategoryID == nil || *third.QuizSubcategoryID != 1 {
		t.Errorf("quiz subcategory not parsed: %+v", third.QuizSubcategoryID)
	}
	if len(third.Choices) != 0 {
		t.Errorf("likert question must carry no choices, got %d", len(third.Choices))
	}
}

func TestImportSkipsBadRowsWithWarnings(t *testing.T) {
	svc, _ := newImportFixture(t)

	workbook := buildWorkbook(t, [][]interface{}{
		{"1", "", "", "multiple_choice", "Good", "*a|b"},
		{"x", "", "", "multiple_choice", "Bad category", "*a|b"},
		{"1", "", "", "multiple_choice", "No choices", ""},
		{"1", "", "", "essay", "Unknown type", ""},
		{"1", "", "", "multiple_choice", "", "*a|b"},
	})

	result, err := svc.ImportQuestions(context.Background(), workbook, "admin-1")
	if err != nil {
		t.Fatalf("ImportQuestions: %v", err)
	}
	if result.QuestionsImported != 1 {
		t.Errorf("imported = %d, want 1", result.QuestionsImported)
	}
	if result.RowsSkipped != 4 {
		t.Errorf("skipped = %d, want 4", result.RowsSkipped)
	}
	if len(result.Warnings) != 4 {
		t.Errorf("warnings = %d, want 4: %v", len(result.Warnings), result.Warnings)
	}
}

func TestImportRequiresAdminRole(t *testing.T) {
	svc, _ := newImportFixture(t)

	workbook := buildWorkbook(t, [][]interface{}{
		{"1", "", "", "multiple_choice", "Pick one", "*a|b"},
	})

	_, err := svc.ImportQuestions(context.Background(), workbook, "student-1")
	if !errors.Is(err, ErrOwnershipViolation) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestImportRequiresAuthentication(t *testing.T) {
	svc, _ := newImportFixture(t)
	_, err := svc.ImportQuestions(context.Background(), bytes.NewReader(nil), "")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestImportRejectsInvalidWorkbook(t *testing.T) {
	svc, _ := newImportFixture(t)
	_, err := svc.ImportQuestions(context.Background(), bytes.NewReader([]byte("not a workbook")), "admin-1")
	if err == nil {
		t.Fatal("expected error for invalid workbook bytes")
	}
}

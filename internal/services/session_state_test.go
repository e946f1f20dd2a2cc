package services

import (
	"testing"
	"time"

	"github.com/PathwayEdu/session-service/internal/models"
)

func twoSectionState(t *testing.T) *SessionState {
	t.Helper()
	sections := []models.Section{
		{
			ID:    "cat:1",
			Title: "Interests",
			Questions: []models.Question{
				{ID: 1, Type: models.MultipleChoice, CategoryID: 1},
				{ID: 2, Type: models.MultipleChoice, CategoryID: 1},
				{ID: 3, Type: models.MultipleChoice, CategoryID: 1},
			},
		},
		{
			ID:    "cat:2",
			Title: "Work Style",
			Questions: []models.Question{
				{ID: 4, Type: models.Likert, CategoryID: 2},
				{ID: 5, Type: models.Likert, CategoryID: 2},
			},
		},
	}
	return NewSessionState("user-1", 7, sections, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
}

func TestRecordAnswerUpsert(t *testing.T) {
	st := twoSectionState(t)

	if err := st.RecordAnswer(1, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.RecordAnswer(1, "b"); err != nil {
		t.Fatalf("unexpected error on overwrite: %v", err)
	}
	if st.Answers[1] != "b" {
		t.Errorf("expected latest value to win, got %q", st.Answers[1])
	}
	if answered, _ := st.OverallCompletion(); answered != 1 {
		t.Errorf("overwrite must not change the answered count, got %d", answered)
	}
}

func TestRecordAnswerRejectsUnknownQuestion(t *testing.T) {
	st := twoSectionState(t)
	if err := st.RecordAnswer(99, "a"); err == nil {
		t.Fatal("expected error for question outside the session")
	}
	if len(st.Answers) != 0 {
		t.Errorf("rejected answer must not be stored")
	}
}

func TestRecordAnswerEmptyValueIsNoOp(t *testing.T) {
	st := twoSectionState(t)
	if err := st.RecordAnswer(1, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.RecordAnswer(1, ""); err != nil {
		t.Fatalf("empty value must not error: %v", err)
	}
	if st.Answers[1] != "a" {
		t.Errorf("empty value must not clear an existing answer, got %q", st.Answers[1])
	}
	if answered, _ := st.OverallCompletion(); answered != 1 {
		t.Errorf("answered count moved backwards: %d", answered)
	}
}

func TestCompletionMath(t *testing.T) {
	st := twoSectionState(t)
	// 2 of 3 in the first section, 0 of 2 in the second.
	st.RecordAnswer(1, "a")
	st.RecordAnswer(2, "b")

	tests := []struct {
		name      string
		sectionID string
		want      int
	}{
		{"partially answered section rounds", "cat:1", 67},
		{"untouched section", "cat:2", 0},
		{"unknown section counts complete", "cat:999", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := st.SectionCompletion(tt.sectionID); got != tt.want {
				t.Errorf("SectionCompletion(%q) = %d, want %d", tt.sectionID, got, tt.want)
			}
		})
	}

	if got := st.ProgressPercentage(); got != 40 {
		t.Errorf("ProgressPercentage() = %d, want 40", got)
	}
	answered, total := st.OverallCompletion()
	if answered != 2 || total != 5 {
		t.Errorf("OverallCompletion() = (%d, %d), want (2, 5)", answered, total)
	}
}

func TestCompletionAcrossUnevenSections(t *testing.T) {
	sections := []models.Section{
		{ID: "cat:1", Questions: []models.Question{{ID: 1}, {ID: 2}}},
		{ID: "cat:2", Questions: []models.Question{{ID: 3}, {ID: 4}, {ID: 5}}},
	}
	st := NewSessionState("user-1", 7, sections, time.Now())

	// Both of section one, one of section two.
	st.RecordAnswer(1, "a")
	st.RecordAnswer(2, "b")
	st.RecordAnswer(3, "c")

	if got := st.SectionCompletion("cat:1"); got != 100 {
		t.Errorf("fully answered section = %d, want 100", got)
	}
	if got := st.SectionCompletion("cat:2"); got != 33 {
		t.Errorf("one of three answered = %d, want 33", got)
	}
	answered, total := st.OverallCompletion()
	if answered != 3 || total != 5 {
		t.Errorf("OverallCompletion() = (%d, %d), want (3, 5)", answered, total)
	}
}

func TestAnsweredCountUnaffectedByNavigation(t *testing.T) {
	st := twoSectionState(t)
	st.RecordAnswer(1, "a")
	st.RecordAnswer(2, "b")

	before, _ := st.OverallCompletion()
	st.AdvanceSection(1)
	st.AdvanceSection(-1)
	after, _ := st.OverallCompletion()

	if before != after {
		t.Errorf("answered count changed across navigation: %d -> %d", before, after)
	}
}

func TestEmptySectionCompletion(t *testing.T) {
	st := NewSessionState("user-1", 7, []models.Section{{ID: "cat:1", Title: "Empty"}}, time.Now())
	if got := st.SectionCompletion("cat:1"); got != 100 {
		t.Errorf("empty section completion = %d, want 100", got)
	}
	if got := st.ProgressPercentage(); got != 100 {
		t.Errorf("empty session progress = %d, want 100", got)
	}
}

func TestNavigationClamping(t *testing.T) {
	st := twoSectionState(t)

	tests := []struct {
		name string
		move func()
		want int
	}{
		{"forward", func() { st.AdvanceSection(1) }, 1},
		{"past the end clamps", func() { st.AdvanceSection(5) }, 1},
		{"back", func() { st.AdvanceSection(-1) }, 0},
		{"before the start clamps", func() { st.AdvanceSection(-5) }, 0},
		{"jump in range", func() { st.GoToSection(1) }, 1},
		{"jump out of range clamps", func() { st.GoToSection(42) }, 1},
		{"negative jump clamps", func() { st.GoToSection(-3) }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.move()
			if st.CurrentSectionIndex != tt.want {
				t.Errorf("CurrentSectionIndex = %d, want %d", st.CurrentSectionIndex, tt.want)
			}
		})
	}
}

func TestNavigationDoesNotTouchAnswers(t *testing.T) {
	st := twoSectionState(t)
	st.RecordAnswer(1, "a")
	st.GoToSection(1)
	st.GoToSection(0)
	if st.Answers[1] != "a" {
		t.Errorf("navigation changed answers: %q", st.Answers[1])
	}
	if len(st.Sections[0].Questions) != 3 {
		t.Errorf("navigation changed section contents")
	}
}

func TestCurrentSectionOnEmptySession(t *testing.T) {
	st := NewSessionState("user-1", 7, nil, time.Now())
	if st.CurrentSection() != nil {
		t.Error("expected nil current section for session without sections")
	}
}

func TestRemainingSeconds(t *testing.T) {
	st := twoSectionState(t)
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	if got := st.RemainingSeconds(now); got != -1 {
		t.Errorf("no deadline: got %d, want -1", got)
	}

	deadline := now.Add(90 * time.Second)
	st.Deadline = &deadline
	if got := st.RemainingSeconds(now); got != 90 {
		t.Errorf("got %d, want 90", got)
	}
	if got := st.RemainingSeconds(now.Add(2 * time.Minute)); got != 0 {
		t.Errorf("past deadline: got %d, want 0", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := twoSectionState(t)
	st.RecordAnswer(1, "a")
	st.RecordAnswer(4, "3")
	st.GoToSection(1)
	st.ElapsedSeconds = 125

	record, err := st.ToSavedProgress()
	if err != nil {
		t.Fatalf("ToSavedProgress: %v", err)
	}
	if record.ProgressPercentage != 40 {
		t.Errorf("stored progress = %d, want 40", record.ProgressPercentage)
	}

	resumed, err := SessionStateFromSavedProgress(record, time.Now())
	if err != nil {
		t.Fatalf("SessionStateFromSavedProgress: %v", err)
	}

	if len(resumed.Sections) != len(st.Sections) {
		t.Fatalf("section count changed across round trip: %d vs %d", len(resumed.Sections), len(st.Sections))
	}
	for i := range st.Sections {
		if resumed.Sections[i].ID != st.Sections[i].ID {
			t.Errorf("section %d id changed: %q vs %q", i, resumed.Sections[i].ID, st.Sections[i].ID)
		}
		if len(resumed.Sections[i].Questions) != len(st.Sections[i].Questions) {
			t.Errorf("section %d question count changed", i)
		}
		for j := range st.Sections[i].Questions {
			if resumed.Sections[i].Questions[j].ID != st.Sections[i].Questions[j].ID {
				t.Errorf("section %d question %d changed identity", i, j)
			}
		}
	}
	if len(resumed.Answers) != 2 || resumed.Answers[1] != "a" || resumed.Answers[4] != "3" {
		t.Errorf("answers changed across round trip: %v", resumed.Answers)
	}
	if resumed.CurrentSectionIndex != 1 {
		t.Errorf("cursor changed: %d", resumed.CurrentSectionIndex)
	}
	if resumed.ElapsedSeconds != 125 {
		t.Errorf("elapsed changed: %d", resumed.ElapsedSeconds)
	}

	// Resuming must not re-validate against the live bank: an answer recorded
	// against a snapshot question still works after the round trip.
	if err := resumed.RecordAnswer(2, "b"); err != nil {
		t.Errorf("snapshot question rejected after resume: %v", err)
	}
}

func TestSnapshotCursorClampedOnResume(t *testing.T) {
	st := twoSectionState(t)
	record, err := st.ToSavedProgress()
	if err != nil {
		t.Fatalf("ToSavedProgress: %v", err)
	}
	record.CurrentSectionIndex = 42

	resumed, err := SessionStateFromSavedProgress(record, time.Now())
	if err != nil {
		t.Fatalf("SessionStateFromSavedProgress: %v", err)
	}
	if resumed.CurrentSectionIndex != 1 {
		t.Errorf("out-of-range cursor not clamped: %d", resumed.CurrentSectionIndex)
	}
}

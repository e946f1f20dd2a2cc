package services

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/PathwayEdu/session-service/internal/models"
)

// SessionState is the in-memory model of one attempt. Sections are frozen at
// build time; only the orchestrator mutates the rest, one event at a time.
type SessionState struct {
	UserID       string
	AssessmentID uint

	Sections            []models.Section
	CurrentSectionIndex int
	Answers             models.AnswerMap

	StartedAt      time.Time
	ElapsedSeconds int
	Deadline       *time.Time

	// questionIndex maps every questionId in Sections to its owning section
	// id, built once so answer writes can be membership-checked cheaply.
	questionIndex map[uint]string
}

// NewSessionState wraps freshly built sections into a session starting at the
// first section with no answers.
func NewSessionState(userID string, assessmentID uint, sections []models.Section, startedAt time.Time) *SessionState {
	st := &SessionState{
		UserID:       userID,
		AssessmentID: assessmentID,
		Sections:     sections,
		Answers:      make(models.AnswerMap),
		StartedAt:    startedAt,
	}
	st.rebuildQuestionIndex()
	return st
}

func (st *SessionState) rebuildQuestionIndex() {
	st.questionIndex = make(map[uint]string)
	for _, section := range st.Sections {
		for _, q := range section.Questions {
			st.questionIndex[q.ID] = section.ID
		}
	}
}

// RecordAnswer upserts one answer. Values are opaque; any non-empty value
// counts as answered, and empty values are ignored so progress never moves
// backwards. Unknown question ids are rejected.
func (st *SessionState) RecordAnswer(questionID uint, value string) error {
	if value == "" {
		return nil
	}
	if _, ok := st.questionIndex[questionID]; !ok {
		return fmt.Errorf("question %d is not part of this session", questionID)
	}
	st.Answers[questionID] = value
	return nil
}

// SectionCompletion returns the answered percentage for one section, rounded
// to the nearest integer. An empty or unknown section is 100% so it never
// blocks overall progress.
func (st *SessionState) SectionCompletion(sectionID string) int {
	for _, section := range st.Sections {
		if section.ID != sectionID {
			continue
		}
		if len(section.Questions) == 0 {
			return 100
		}
		answered := 0
		for _, q := range section.Questions {
			if _, ok := st.Answers[q.ID]; ok {
				answered++
			}
		}
		return int(math.Round(float64(answered) / float64(len(section.Questions)) * 100))
	}
	return 100
}

// OverallCompletion sums answered and total question counts across all
// sections.
func (st *SessionState) OverallCompletion() (answered, total int) {
	for _, section := range st.Sections {
		total += len(section.Questions)
		for _, q := range section.Questions {
			if _, ok := st.Answers[q.ID]; ok {
				answered++
			}
		}
	}
	return answered, total
}

// ProgressPercentage is the overall completion as a rounded percentage; an
// attempt with no questions counts as complete.
func (st *SessionState) ProgressPercentage() int {
	answered, total := st.OverallCompletion()
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(answered) / float64(total) * 100))
}

// GoToSection moves to an arbitrary section index, clamped into range.
// Navigation never touches answers or section contents.
func (st *SessionState) GoToSection(index int) {
	if index < 0 {
		index = 0
	}
	if max := len(st.Sections) - 1; index > max {
		index = max
	}
	if index < 0 {
		index = 0
	}
	st.CurrentSectionIndex = index
}

// AdvanceSection moves by delta sections, clamped into range.
func (st *SessionState) AdvanceSection(delta int) {
	st.GoToSection(st.CurrentSectionIndex + delta)
}

// CurrentSection returns the section under the cursor, or nil for an empty
// session.
func (st *SessionState) CurrentSection() *models.Section {
	if len(st.Sections) == 0 {
		return nil
	}
	return &st.Sections[st.CurrentSectionIndex]
}

// RemainingSeconds returns the countdown to the deadline at the given time,
// or -1 when no deadline is configured.
func (st *SessionState) RemainingSeconds(now time.Time) int {
	if st.Deadline == nil {
		return -1
	}
	remaining := int(st.Deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ===== SNAPSHOT (DE)SERIALIZATION =====

// ToSavedProgress serializes the state into its wire/storage form. Sections
// are stored verbatim so resume replays the identical sampled questions.
func (st *SessionState) ToSavedProgress() (*models.SavedProgress, error) {
	answers, err := json.Marshal(st.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize answers: %w", err)
	}
	sections, err := json.Marshal(st.Sections)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sections: %w", err)
	}

	return &models.SavedProgress{
		UserID:              st.UserID,
		AssessmentID:        st.AssessmentID,
		CurrentSectionIndex: st.CurrentSectionIndex,
		ProgressPercentage:  st.ProgressPercentage(),
		ElapsedSeconds:      st.ElapsedSeconds,
		Answers:             answers,
		Sections:            sections,
	}, nil
}

// SessionStateFromSavedProgress reconstructs a session exactly as it was
// saved: same sections in the same order, same answers, same cursor and
// elapsed time. No re-sampling happens here.
func SessionStateFromSavedProgress(record *models.SavedProgress, now time.Time) (*SessionState, error) {
	var sections []models.Section
	if err := json.Unmarshal(record.Sections, &sections); err != nil {
		return nil, fmt.Errorf("failed to deserialize sections: %w", err)
	}
	answers := make(models.AnswerMap)
	if len(record.Answers) > 0 {
		if err := json.Unmarshal(record.Answers, &answers); err != nil {
			return nil, fmt.Errorf("failed to deserialize answers: %w", err)
		}
	}

	st := &SessionState{
		UserID:              record.UserID,
		AssessmentID:        record.AssessmentID,
		Sections:            sections,
		Answers:             answers,
		StartedAt:           now,
		ElapsedSeconds:      record.ElapsedSeconds,
		CurrentSectionIndex: record.CurrentSectionIndex,
	}
	st.rebuildQuestionIndex()

	// A snapshot written against a different section count still has to
	// satisfy the index invariant.
	st.GoToSection(st.CurrentSectionIndex)

	return st, nil
}

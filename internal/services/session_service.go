package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PathwayEdu/session-service/internal/config"
	"github.com/PathwayEdu/session-service/internal/events"
	"github.com/PathwayEdu/session-service/internal/models"
	"github.com/PathwayEdu/session-service/internal/repositories"
	"github.com/PathwayEdu/session-service/internal/utils"
	"github.com/PathwayEdu/session-service/internal/validator"
)

// activeSession pairs one SessionState with its lifecycle bookkeeping. Every
// mutation (answer, navigation, tick, save, submit) takes the session mutex,
// so state changes stay serialized the way the event-driven original was.
type activeSession struct {
	mu sync.Mutex

	state  *SessionState
	status models.SessionStatus

	resumed      bool
	saveInFlight bool
	deadlineSent bool

	stopOnce   sync.Once
	stopTicker chan struct{}
	tickerDone chan struct{}
}

type sessionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	clock     utils.Clock
	quota     models.QuotaTable
	cfg       config.SessionConfig

	mu       sync.Mutex
	sessions map[string]*activeSession
}

func NewSessionService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	publisher events.EventPublisher,
	clock utils.Clock,
	quota models.QuotaTable,
	cfg config.SessionConfig,
) SessionService {
	return &sessionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		clock:     clock,
		quota:     quota,
		cfg:       cfg,
		sessions:  make(map[string]*activeSession),
	}
}

func sessionKey(userID string, assessmentID uint) string {
	return fmt.Sprintf("%s:%d", userID, assessmentID)
}

// newRand seeds an independent source per fresh build; the package-level
// source is locked, so drawing the seed through it is safe under concurrent
// starts.
func (s *sessionService) newRand() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}

// ===== START-UP STATE MACHINE =====

// Start decides between a fresh build and a resume. The saved snapshot is
// only consulted, never deleted; declining a resume simply leaves it behind.
func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, userID string) (*StartSessionResponse, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.logger.Info("Starting assessment session",
		"assessment_id", req.AssessmentID,
		"user_id", userID)

	key := sessionKey(userID, req.AssessmentID)
	s.mu.Lock()
	if existing, ok := s.sessions[key]; ok {
		s.mu.Unlock()
		// Re-entering the already live session returns its current view.
		existing.mu.Lock()
		view := s.viewLocked(existing)
		existing.mu.Unlock()
		return &StartSessionResponse{Session: view}, nil
	}
	s.mu.Unlock()

	// Loading: look for a snapshot to resume.
	saved, err := s.findSnapshot(ctx, userID, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailure, err)
	}

	if saved != nil {
		// Ownership is checked before any snapshot content is surfaced. A
		// mismatched record is an authorization failure, never a silent
		// fallback to a fresh build.
		if saved.UserID != userID {
			s.logger.Warn("Refusing to resume foreign saved progress",
				"assessment_id", req.AssessmentID,
				"user_id", userID)
			return nil, NewPermissionError(userID, "saved_progress", "resume", "record owned by another user")
		}

		if req.Resume == nil {
			return &StartSessionResponse{Prompt: &ResumePrompt{
				AssessmentID:       saved.AssessmentID,
				ProgressPercentage: saved.ProgressPercentage,
				ElapsedSeconds:     saved.ElapsedSeconds,
			}}, nil
		}

		if *req.Resume {
			return s.resumeSession(ctx, saved, userID)
		}
		// Declined: fall through to a fresh build. The snapshot stays.
	}

	return s.freshSession(ctx, req.AssessmentID, userID)
}

func (s *sessionService) findSnapshot(ctx context.Context, userID string, assessmentID uint) (*models.SavedProgress, error) {
	inProgress, err := s.repo.Progress().FindInProgress(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	for _, record := range inProgress {
		if record.AssessmentID == assessmentID {
			return record, nil
		}
	}
	return nil, nil
}

func (s *sessionService) freshSession(ctx context.Context, assessmentID uint, userID string) (*StartSessionResponse, error) {
	bank, err := s.repo.QuestionBank().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailure, err)
	}

	sampler := NewSampler(s.newRand())
	sections := NewSectionBuilder(sampler).Build(bank, s.quota)
	if len(sections) == 0 {
		return nil, ErrNoEligibleQuestions
	}

	// Refresh choice lists for the sampled multiple-choice questions so the
	// session carries the authoritative ordering.
	for si := range sections {
		for qi := range sections[si].Questions {
			q := &sections[si].Questions[qi]
			if q.Type != models.MultipleChoice {
				continue
			}
			choices, err := s.repo.QuestionBank().ListChoices(ctx, nil, q.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrLoadFailure, err)
			}
			q.Choices = choices
		}
	}

	now := s.clock.Now()
	state := NewSessionState(userID, assessmentID, sections, now)
	s.applyDeadline(state, now)

	sess, err := s.activate(state, false)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.SessionEvent{
		Type:         events.SessionStarted,
		UserID:       userID,
		AssessmentID: assessmentID,
		OccurredAt:   now,
	})

	sess.mu.Lock()
	view := s.viewLocked(sess)
	sess.mu.Unlock()
	return &StartSessionResponse{Session: view}, nil
}

func (s *sessionService) resumeSession(ctx context.Context, saved *models.SavedProgress, userID string) (*StartSessionResponse, error) {
	now := s.clock.Now()
	state, err := SessionStateFromSavedProgress(saved, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailure, err)
	}
	s.applyDeadline(state, now)

	sess, err := s.activate(state, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Resumed assessment session",
		"assessment_id", saved.AssessmentID,
		"user_id", userID,
		"elapsed_seconds", saved.ElapsedSeconds)

	s.publish(ctx, events.SessionEvent{
		Type:         events.SessionResumed,
		UserID:       userID,
		AssessmentID: saved.AssessmentID,
		Progress:     saved.ProgressPercentage,
		OccurredAt:   now,
	})

	sess.mu.Lock()
	view := s.viewLocked(sess)
	sess.mu.Unlock()
	return &StartSessionResponse{Session: view}, nil
}

// applyDeadline derives the countdown target from the configured cap minus
// time already spent in earlier sittings.
func (s *sessionService) applyDeadline(state *SessionState, now time.Time) {
	if s.cfg.DeadlineMinutes <= 0 {
		return
	}
	budget := s.cfg.DeadlineMinutes*60 - state.ElapsedSeconds
	if budget < 0 {
		budget = 0
	}
	deadline := now.Add(time.Duration(budget) * time.Second)
	state.Deadline = &deadline
}

// activate registers the session and starts its elapsed-time ticker. The
// ticker is the only autonomous event source; it runs only while the session
// is Active and stops for good when the session leaves that state.
func (s *sessionService) activate(state *SessionState, resumed bool) (*activeSession, error) {
	sess := &activeSession{
		state:      state,
		status:     models.SessionActive,
		resumed:    resumed,
		stopTicker: make(chan struct{}),
		tickerDone: make(chan struct{}),
	}

	key := sessionKey(state.UserID, state.AssessmentID)
	s.mu.Lock()
	if _, ok := s.sessions[key]; ok {
		s.mu.Unlock()
		return nil, ErrSessionExists
	}
	s.sessions[key] = sess
	s.mu.Unlock()

	go s.runTicker(sess)
	return sess, nil
}

func (s *sessionService) runTicker(sess *activeSession) {
	defer close(sess.tickerDone)

	tick := time.Duration(s.cfg.TickSeconds) * time.Second
	ticker := s.clock.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-sess.stopTicker:
			return
		case now := <-ticker.C():
			if expired := s.handleTick(sess, now); expired {
				s.handleDeadline(sess)
				return
			}
		}
	}
}

// handleTick advances elapsed time and reports whether the deadline passed.
func (s *sessionService) handleTick(sess *activeSession, now time.Time) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != models.SessionActive {
		return false
	}
	sess.state.ElapsedSeconds += s.cfg.TickSeconds

	if sess.state.Deadline != nil && !now.Before(*sess.state.Deadline) && !sess.deadlineSent {
		sess.deadlineSent = true
		return true
	}
	return false
}

// handleDeadline forces the one automatic submit when the countdown reaches
// zero.
func (s *sessionService) handleDeadline(sess *activeSession) {
	sess.mu.Lock()
	userID := sess.state.UserID
	assessmentID := sess.state.AssessmentID
	sess.mu.Unlock()

	s.logger.Info("Session deadline expired, forcing submit",
		"assessment_id", assessmentID,
		"user_id", userID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.publish(ctx, events.SessionEvent{
		Type:         events.SessionDeadlineExpired,
		UserID:       userID,
		AssessmentID: assessmentID,
		OccurredAt:   s.clock.Now(),
	})

	if _, err := s.submit(ctx, assessmentID, userID, models.SubmitReasonTimeout); err != nil {
		s.logger.Error("Forced submit after deadline failed",
			"error", err,
			"assessment_id", assessmentID,
			"user_id", userID)
	}
}

// ===== ACTIVE SESSION OPERATIONS =====

func (s *sessionService) lookup(userID string, assessmentID uint) (*activeSession, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionKey(userID, assessmentID)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) RecordAnswer(ctx context.Context, assessmentID uint, req *RecordAnswerRequest, userID string) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	sess, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != models.SessionActive {
		return nil, ErrSessionNotActive
	}
	if err := sess.state.RecordAnswer(req.QuestionID, req.Value); err != nil {
		return nil, err
	}
	return s.viewLocked(sess), nil
}

func (s *sessionService) Navigate(ctx context.Context, assessmentID uint, req *NavigateRequest, userID string) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	sess, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != models.SessionActive {
		return nil, ErrSessionNotActive
	}
	switch {
	case req.SectionIndex != nil:
		sess.state.GoToSection(*req.SectionIndex)
	case req.Delta != nil:
		sess.state.AdvanceSection(*req.Delta)
	}
	return s.viewLocked(sess), nil
}

func (s *sessionService) Get(ctx context.Context, assessmentID uint, userID string) (*SessionView, error) {
	sess, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess), nil
}

// Save snapshots the session. Only one save may be in flight at a time so a
// slow response can never overwrite a newer snapshot with stale data. Failure
// keeps the session Active with in-memory state untouched.
func (s *sessionService) Save(ctx context.Context, assessmentID uint, userID string) (*SessionView, error) {
	sess, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.saveInFlight {
		sess.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	if sess.status != models.SessionActive {
		sess.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	sess.saveInFlight = true
	sess.status = models.SessionSaving
	snapshot, snapErr := sess.state.ToSavedProgress()
	progress := sess.state.ProgressPercentage()
	sess.mu.Unlock()

	finish := func() {
		sess.mu.Lock()
		sess.saveInFlight = false
		if sess.status == models.SessionSaving {
			sess.status = models.SessionActive
		}
		sess.mu.Unlock()
	}

	if snapErr != nil {
		finish()
		return nil, fmt.Errorf("%w: %v", ErrSaveFailure, snapErr)
	}

	if err := s.repo.Progress().Save(ctx, nil, snapshot); err != nil {
		finish()
		s.logger.Error("Failed to save session progress",
			"error", err,
			"assessment_id", assessmentID,
			"user_id", userID)
		return nil, fmt.Errorf("%w: %v", ErrSaveFailure, err)
	}
	finish()

	s.logger.Info("Session progress saved",
		"assessment_id", assessmentID,
		"user_id", userID,
		"progress", progress)

	s.publish(ctx, events.SessionEvent{
		Type:         events.SessionSaved,
		UserID:       userID,
		AssessmentID: assessmentID,
		Progress:     progress,
		OccurredAt:   s.clock.Now(),
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess), nil
}

func (s *sessionService) Submit(ctx context.Context, assessmentID uint, userID string) (*SubmitResponse, error) {
	return s.submit(ctx, assessmentID, userID, models.SubmitReasonUser)
}

// submit finalizes the attempt. Submission is allowed at any completion
// level; the deadline path reuses it for the forced submit. On failure the
// session returns to Active with answers intact so the user can retry.
func (s *sessionService) submit(ctx context.Context, assessmentID uint, userID string, reason string) (*SubmitResponse, error) {
	sess, err := s.lookup(userID, assessmentID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.status != models.SessionActive {
		sess.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	sess.status = models.SessionSubmitting
	submission, subErr := s.buildSubmission(sess.state, reason)
	elapsed := sess.state.ElapsedSeconds
	sess.mu.Unlock()

	if subErr != nil {
		sess.mu.Lock()
		sess.status = models.SessionActive
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailure, subErr)
	}

	if err := s.repo.Progress().SubmitCompleted(ctx, nil, submission); err != nil {
		sess.mu.Lock()
		sess.status = models.SessionActive
		sess.mu.Unlock()
		s.logger.Error("Failed to submit session",
			"error", err,
			"assessment_id", assessmentID,
			"user_id", userID)
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailure, err)
	}

	sess.mu.Lock()
	sess.status = models.SessionTerminal
	sess.mu.Unlock()
	s.retire(sess, userID, assessmentID)

	s.logger.Info("Session submitted",
		"assessment_id", assessmentID,
		"user_id", userID,
		"submission_id", submission.ID,
		"reason", reason)

	s.publish(ctx, events.SessionEvent{
		Type:         events.SessionSubmitted,
		UserID:       userID,
		AssessmentID: assessmentID,
		SubmissionID: submission.ID,
		OccurredAt:   s.clock.Now(),
	})

	return &SubmitResponse{
		SubmissionID:   submission.ID,
		ElapsedSeconds: elapsed,
		SubmitReason:   reason,
	}, nil
}

func (s *sessionService) buildSubmission(state *SessionState, reason string) (*models.Submission, error) {
	snapshot, err := state.ToSavedProgress()
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		ID:             uuid.NewString(),
		UserID:         state.UserID,
		AssessmentID:   state.AssessmentID,
		ElapsedSeconds: state.ElapsedSeconds,
		SubmitReason:   reason,
		Sections:       snapshot.Sections,
	}
	for questionID, value := range state.Answers {
		submission.Answers = append(submission.Answers, models.SubmissionAnswer{
			QuestionID: questionID,
			Value:      value,
		})
	}
	return submission, nil
}

// Abandon removes the caller's own snapshot and drops the live session if one
// exists. The delete is scoped to the authenticated user, so there is no
// foreign record to protect here. A save still in flight blocks the abandon:
// letting the delete proceed would have the save's completion re-create the
// snapshot just removed.
func (s *sessionService) Abandon(ctx context.Context, assessmentID uint, userID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}

	if sess, err := s.lookup(userID, assessmentID); err == nil {
		sess.mu.Lock()
		if sess.saveInFlight {
			sess.mu.Unlock()
			return ErrSaveInProgress
		}
		sess.status = models.SessionTerminal
		sess.mu.Unlock()
		s.retire(sess, userID, assessmentID)
	}

	err := s.repo.Progress().DeleteByUserAndAssessment(ctx, nil, userID, assessmentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to abandon session: %w", err)
	}

	s.publish(ctx, events.SessionEvent{
		Type:         events.SessionAbandoned,
		UserID:       userID,
		AssessmentID: assessmentID,
		OccurredAt:   s.clock.Now(),
	})
	return nil
}

// retire stops the ticker and unregisters the session. Retirement can race
// itself (deadline-forced submit vs abandon vs shutdown), so the channel close
// goes through a Once.
func (s *sessionService) retire(sess *activeSession, userID string, assessmentID uint) {
	sess.stopOnce.Do(func() { close(sess.stopTicker) })

	s.mu.Lock()
	delete(s.sessions, sessionKey(userID, assessmentID))
	s.mu.Unlock()
}

func (s *sessionService) Shutdown(_ context.Context) error {
	s.mu.Lock()
	live := make([]*activeSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.sessions = make(map[string]*activeSession)
	s.mu.Unlock()

	for _, sess := range live {
		sess.stopOnce.Do(func() { close(sess.stopTicker) })
		<-sess.tickerDone
	}
	return nil
}

// ===== HELPERS =====

// viewLocked builds the read model; the caller holds sess.mu.
func (s *sessionService) viewLocked(sess *activeSession) *SessionView {
	state := sess.state
	answered, total := state.OverallCompletion()

	sections := make([]SectionView, len(state.Sections))
	for i, section := range state.Sections {
		sections[i] = SectionView{
			ID:          section.ID,
			Title:       section.Title,
			Description: section.Description,
			Questions:   len(section.Questions),
			Completion:  state.SectionCompletion(section.ID),
		}
	}

	answers := make(models.AnswerMap, len(state.Answers))
	for id, value := range state.Answers {
		answers[id] = value
	}

	return &SessionView{
		AssessmentID:        state.AssessmentID,
		Status:              sess.status,
		Resumed:             sess.resumed,
		CurrentSectionIndex: state.CurrentSectionIndex,
		CurrentSection:      state.CurrentSection(),
		Sections:            sections,
		Answers:             answers,
		Answered:            answered,
		Total:               total,
		ProgressPercentage:  state.ProgressPercentage(),
		ElapsedSeconds:      state.ElapsedSeconds,
		RemainingSeconds:    state.RemainingSeconds(s.clock.Now()),
	}
}

func (s *sessionService) publish(ctx context.Context, event events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish session event",
			"error", err,
			"type", event.Type)
	}
}

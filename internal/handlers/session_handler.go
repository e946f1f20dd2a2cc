package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PathwayEdu/session-service/internal/services"
	"github.com/PathwayEdu/session-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartSession starts a fresh session or resumes a saved one. When a snapshot
// exists and the request carries no resume decision, the response is a prompt
// and no session is created yet.
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.LogRequest(c, "Starting assessment session")

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	resp, err := h.sessionService.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if resp.Prompt != nil {
		c.JSON(http.StatusOK, SuccessResponse{Data: resp.Prompt})
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Data: resp.Session})
}

// GetSession returns the current view of a live session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	view, err := h.sessionService.Get(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// RecordAnswer upserts one answer and returns recomputed completion.
func (h *SessionHandler) RecordAnswer(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	var req services.RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	view, err := h.sessionService.RecordAnswer(c.Request.Context(), assessmentID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// Navigate moves the section cursor, by jump or by step.
func (h *SessionHandler) Navigate(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	var req services.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if req.SectionIndex == nil && req.Delta == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Either section_index or delta is required",
		})
		return
	}

	view, err := h.sessionService.Navigate(c.Request.Context(), assessmentID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// SaveSession snapshots the session to the progress store.
func (h *SessionHandler) SaveSession(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Saving session progress", "assessment_id", assessmentID)

	view, err := h.sessionService.Save(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: view})
}

// SubmitSession finalizes the attempt and returns the submission id.
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Submitting session", "assessment_id", assessmentID)

	resp, err := h.sessionService.Submit(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Data: resp})
}

// AbandonSession drops the caller's saved progress for an assessment.
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Abandoning session", "assessment_id", assessmentID)

	if err := h.sessionService.Abandon(c.Request.Context(), assessmentID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PathwayEdu/session-service/internal/services"
	"github.com/PathwayEdu/session-service/internal/utils"
	"github.com/PathwayEdu/session-service/internal/validator"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// BaseHandler carries the shared logging and error translation for all
// handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// parseIDParam parses a numeric path parameter; 0 means the response was
// already written.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// currentUserID returns the authenticated user id; empty means the response
// was already written.
func (h *BaseHandler) currentUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	return id
}

// handleServiceError maps the engine's error taxonomy onto HTTP statuses.
// Recoverable save/submit failures come back as 502 so the client offers a
// retry; the in-memory session is still intact server-side.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
	case errors.Is(err, services.ErrOwnershipViolation):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Saved progress belongs to another user"})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No active session"})
	case errors.Is(err, services.ErrSessionNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Session is not active"})
	case errors.Is(err, services.ErrSaveInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "A save is already in progress"})
	case errors.Is(err, services.ErrSessionExists):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Session already active"})
	case errors.Is(err, services.ErrNoEligibleQuestions):
		c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{
			"sections": []any{},
			"message":  "no questions available for this assessment",
		}})
	case errors.Is(err, services.ErrLoadFailure):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Failed to load session data",
			Details: "retry is safe; no session was created",
		})
	case errors.Is(err, services.ErrSaveFailure):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Failed to save progress",
			Details: "your answers are still held in the active session; retry the save",
		})
	case errors.Is(err, services.ErrSubmitFailure):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Failed to submit",
			Details: "your answers are still held in the active session; retry the submit",
		})
	default:
		h.logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

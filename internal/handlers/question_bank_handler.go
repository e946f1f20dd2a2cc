package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PathwayEdu/session-service/internal/services"
	"github.com/PathwayEdu/session-service/internal/utils"
)

type QuestionBankHandler struct {
	BaseHandler
	importService services.BankImportService
}

func NewQuestionBankHandler(importService services.BankImportService, logger utils.Logger) *QuestionBankHandler {
	return &QuestionBankHandler{
		BaseHandler:   NewBaseHandler(logger),
		importService: importService,
	}
}

// ImportQuestions loads a question workbook (multipart field "file") into the
// bank. Admin only; the role check lives in the service.
func (h *QuestionBankHandler) ImportQuestions(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Importing question bank workbook")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Workbook file is required",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportQuestions(c.Request.Context(), file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: result})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PathwayEdu/session-service/internal/config"
	"github.com/PathwayEdu/session-service/internal/models"
	"github.com/PathwayEdu/session-service/internal/repositories"
	"github.com/PathwayEdu/session-service/internal/services"
	"github.com/PathwayEdu/session-service/internal/utils"
)

type HandlerManager struct {
	sessionHandler      *SessionHandler
	questionBankHandler *QuestionBankHandler
	authMiddleware      *CasdoorAuthMiddleware
	serviceManager      services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		sessionHandler:      NewSessionHandler(serviceManager.Session(), logger),
		questionBankHandler: NewQuestionBankHandler(serviceManager.BankImport(), logger),
		authMiddleware:      authMiddleware,
		serviceManager:      serviceManager,
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Session routes — all scoped to the authenticated user
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.sessionHandler.StartSession)
			sessions.GET("/:assessment_id", hm.sessionHandler.GetSession)
			sessions.POST("/:assessment_id/answers", hm.sessionHandler.RecordAnswer)
			sessions.POST("/:assessment_id/navigate", hm.sessionHandler.Navigate)
			sessions.POST("/:assessment_id/save", hm.sessionHandler.SaveSession)
			sessions.POST("/:assessment_id/submit", hm.sessionHandler.SubmitSession)
			sessions.DELETE("/:assessment_id", hm.sessionHandler.AbandonSession)
		}

		// Question bank import — admins only
		bank := v1.Group("/question-bank")
		{
			bank.POST("/import", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionBankHandler.ImportQuestions)
		}
	}
}

// HealthCheck reports service and dependency health.
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jdelrosario/kiosk-server/internal/service"
	"github.com/jdelrosario/kiosk-server/internal/ws"
	"go.uber.org/zap"
)

// Handler holds the HTTP handlers for the API
type Handler struct {
	service   service.Service
	hub       *ws.Hub
	logger    *zap.Logger
	jwtSecret []byte
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, hub *ws.Hub, logger *zap.Logger, jwtSecret string) *Handler {
	return &Handler{
		service:   svc,
		hub:       hub,
		logger:    logger,
		jwtSecret: []byte(jwtSecret),
	}
}

// SetupRoutes registers all API routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.POST("/api/auth/login", h.Login)

	authed := router.Group("/api", AuthMiddleware(h.jwtSecret))
	{
		authed.POST("/auth/logout", h.RequireRole(nil), h.Logout)
		authed.GET("/auth/me", h.RequireRole(nil), h.Me)

		authed.GET("/services", h.RequireRole(nil), h.ListServices)

		// Requester endpoints
		requester := authed.Group("", h.RequireRole(models.IsRequester))
		{
			requester.POST("/transactions", h.SubmitTransaction)
			requester.GET("/queue/status", h.QueueStatus)
			requester.GET("/me/transactions", h.MyTransactions)
		}

		// Any authenticated user; ownership is checked in the service.
		authed.GET("/transactions/:id", h.RequireRole(nil), h.TransactionDetail)

		// Approver endpoints
		admin := authed.Group("", h.RequireRole(models.IsApprover))
		{
			admin.GET("/queue", h.PendingQueue)
			admin.POST("/transactions/:id/approve", h.Finalize)
			admin.GET("/approved", h.ApprovedList)
			admin.GET("/approved/export", h.ExportApproved)
			admin.GET("/reports/summary", h.ReportSummary)
			admin.GET("/reports/categories", h.CategoryReport)
			admin.GET("/audit", h.AuditLog)

			admin.POST("/services", h.CreateService)
			admin.PUT("/services/:id", h.UpdateService)
			admin.DELETE("/services/:id", h.DeleteService)
		}

		// Account management is restricted further.
		superAdmin := authed.Group("", h.RequireRole(models.IsSuperAdmin))
		{
			superAdmin.GET("/users", h.ListUsers)
			superAdmin.POST("/users", h.CreateUser)
			superAdmin.PUT("/users/:id", h.UpdateUser)
			superAdmin.DELETE("/users/:id", h.DeleteUser)
		}

		authed.GET("/queue/ws", h.RequireRole(nil), h.hub.Handler)
	}
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "UNAUTHORIZED", Message: err.Error(),
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status: "error", Code: "FORBIDDEN", Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: err.Error(),
		})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "CONFLICT", Message: err.Error(),
		})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL_ERROR", Message: "Internal server error",
		})
	}
}

// parseDateRange reads optional from/to query parameters (YYYY-MM-DD).
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid from date %q", service.ErrValidation, v)
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid to date %q", service.ErrValidation, v)
		}
		to = &t
	}
	return from, to, nil
}

// Authentication handlers
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	user := currentUser(c)

	if err := h.service.Logout(c.Request.Context(), user.ID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": currentUser(c)})
}

// Service catalog handlers
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "services": services})
}

func (h *Handler) CreateService(c *gin.Context) {
	var req models.SaveServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	svc, err := h.service.CreateService(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "service": svc})
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: "Invalid service id",
		})
		return
	}

	var req models.SaveServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	svc, err := h.service.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "service": svc})
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: "Invalid service id",
		})
		return
	}

	if err := h.service.DeleteService(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Transaction handlers
func (h *Handler) SubmitTransaction(c *gin.Context) {
	user := currentUser(c)

	var req models.SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	resp, err := h.service.SubmitTransaction(c.Request.Context(), user.ID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.hub.Broadcast(ws.Event{
		Type:          ws.EventSubmitted,
		TransactionID: resp.TransactionID,
		PendingCount:  resp.PendingCount,
	})

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) QueueStatus(c *gin.Context) {
	user := currentUser(c)

	resp, err := h.service.GetQueueStatus(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) PendingQueue(c *gin.Context) {
	resp, err := h.service.GetPendingQueue(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) TransactionDetail(c *gin.Context) {
	user := currentUser(c)

	resp, err := h.service.GetTransactionDetail(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) MyTransactions(c *gin.Context) {
	user := currentUser(c)

	resp, err := h.service.ListUserTransactions(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Finalize(c *gin.Context) {
	user := currentUser(c)

	var req models.FinalizeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	resp, err := h.service.FinalizeTransaction(c.Request.Context(), user.ID, c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Skip the broadcast rather than publish a guessed depth.
	depth, err := h.service.PendingDepth(c.Request.Context())
	if err != nil {
		h.logger.Warn("queue depth unavailable, skipping broadcast",
			zap.String("transactionId", resp.TransactionID),
			zap.Error(err))
	} else {
		h.hub.Broadcast(ws.Event{
			Type:          ws.EventApproved,
			TransactionID: resp.TransactionID,
			PendingCount:  depth,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ApprovedList(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp, err := h.service.ListApproved(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ExportApproved(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data, err := h.service.ExportApproved(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	fileName := fmt.Sprintf("approved_transactions_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Report handlers
func (h *Handler) ReportSummary(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp, err := h.service.ReportSummary(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) CategoryReport(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: "Invalid year",
		})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: "Invalid month",
		})
		return
	}

	resp, err := h.service.CategoryReport(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Audit handlers
func (h *Handler) AuditLog(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Status: "error", Code: "VALIDATION_ERROR", Message: "Invalid limit",
			})
			return
		}
		limit = parsed
	}

	entries, err := h.service.ListAuditEntries(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "entries": entries})
}

// User administration handlers
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "users": users})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req models.SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "user": user})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req models.SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "user": user})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

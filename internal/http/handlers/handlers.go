package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/onhighmng/melhor-saude-backend/internal/matching"
	"github.com/onhighmng/melhor-saude-backend/internal/models"
)

// Store is the slice of the persistence layer the handlers touch directly;
// everything on the assignment path goes through the matching service.
type Store interface {
	Ping(ctx context.Context) error
	ListProviders(ctx context.Context, pillar string) ([]models.Provider, error)
	InsertCase(ctx context.Context, c models.Case) error
	ResolveAssignment(ctx context.Context, caseID string, status string) error
}

type Handler struct {
	Store     Store
	Assigner  *matching.Service
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ProvidersList(c *gin.Context) {
	pillar := strings.TrimSpace(c.Query("pillar"))
	items, err := h.Store.ListProviders(c.Request.Context(), pillar)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list providers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type CreateCaseRequest struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id" validate:"required"`
	Pillar      string                  `json:"pillar" validate:"required"`
	Priority    string                  `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	CaseType    string                  `json:"case_type" validate:"omitempty,oneof=escalated_chat session_request follow_up"`
	Preferences *models.UserPreferences `json:"preferences"`
	Details     models.CaseDetails      `json:"details"`
}

// @Summary Submit a case for assignment
// @Description Persists the case and routes it to the best available provider
// @Tags cases
// @Accept json
// @Produce json
// @Param case body CreateCaseRequest true "case"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/cases [post]
func (h *Handler) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if req.CaseType == "" {
		req.CaseType = models.CaseTypeEscalatedChat
	}

	newCase := models.Case{
		ID:          req.ID,
		UserID:      req.UserID,
		Pillar:      strings.ToLower(strings.TrimSpace(req.Pillar)),
		Priority:    req.Priority,
		CaseType:    req.CaseType,
		Preferences: req.Preferences,
		Details:     req.Details,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.Store.InsertCase(c.Request.Context(), newCase); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save case", err.Error())
		return
	}

	result := h.Assigner.AssignCase(c.Request.Context(), newCase)
	c.JSON(http.StatusCreated, gin.H{
		"case_id":    newCase.ID,
		"assigned":   result != nil,
		"assignment": result,
	})
}

type ReassignRequest struct {
	Reason string `json:"reason" validate:"required,oneof=declined timeout"`
}

// @Summary Reassign a case
// @Tags cases
// @Accept json
// @Produce json
// @Param id path string true "case id"
// @Param body body ReassignRequest true "reason"
// @Success 200 {object} map[string]any
// @Router /api/cases/{id}/reassign [post]
func (h *Handler) Reassign(c *gin.Context) {
	id := c.Param("id")
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	result := h.Assigner.ReassignCase(c.Request.Context(), id, req.Reason)
	c.JSON(http.StatusOK, gin.H{
		"case_id":    id,
		"assigned":   result != nil,
		"assignment": result,
	})
}

func (h *Handler) AcceptAssignment(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.ResolveAssignment(c.Request.Context(), id, models.LogStatusAccepted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No open assignment for case", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to accept assignment", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

func (h *Handler) DeclineAssignment(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.ResolveAssignment(c.Request.Context(), id, models.LogStatusDeclined); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No open assignment for case", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to decline assignment", err.Error())
		return
	}

	result := h.Assigner.ReassignCase(c.Request.Context(), id, models.LogStatusDeclined)
	c.JSON(http.StatusOK, gin.H{
		"status":     "declined",
		"assigned":   result != nil,
		"assignment": result,
	})
}

func (h *Handler) ProviderStats(c *gin.Context) {
	id := c.Param("id")
	days := parseDays(c.DefaultQuery("days", "30"), 30)
	stats := h.Assigner.GetProviderStats(c.Request.Context(), id, days)
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AssignmentHistory(c *gin.Context) {
	days := parseDays(c.DefaultQuery("days", "7"), 7)
	items := h.Assigner.GetAssignmentHistory(c.Request.Context(), days)
	c.JSON(http.StatusOK, gin.H{"items": items, "days": days})
}

func parseDays(raw string, fallback int) int {
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > 365 {
		return fallback
	}
	return days
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

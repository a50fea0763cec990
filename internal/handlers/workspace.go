package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prepbuddy/prepbuddy-api/internal/dto"
	apierrors "github.com/prepbuddy/prepbuddy-api/internal/errors"
	"github.com/prepbuddy/prepbuddy-api/internal/middleware"
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/services"
)

// WorkspaceHandler coordinates workspace and membership HTTP handlers.
type WorkspaceHandler struct {
	wsService    *services.WorkspaceService
	entitlements *services.EntitlementService
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(wsService *services.WorkspaceService, entitlements *services.EntitlementService) *WorkspaceHandler {
	return &WorkspaceHandler{
		wsService:    wsService,
		entitlements: entitlements,
	}
}

// ListWorkspaces returns workspaces the caller owns or is an active
// member of.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspaces, err := h.wsService.ListForUser(identity.UserID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list workspaces")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspaces": dto.ToWorkspaceDTOs(workspaces),
	})
}

// CreateWorkspace creates a workspace, gated by the caller's plan.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type memberRequest struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role"`
	}
	type createRequest struct {
		Name        string          `json:"name" binding:"required,min=1,max=100"`
		Description string          `json:"description" binding:"max=300"`
		Type        string          `json:"type"`
		Members     []memberRequest `json:"members"`
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateWorkspaceInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        models.WorkspaceType(req.Type),
	}
	for _, m := range req.Members {
		input.Members = append(input.Members, services.MemberInput{Email: m.Email, Role: m.Role})
	}

	ws, err := h.wsService.CreateWorkspace(identity.UserID, input)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	// Reload for the members' user records
	full, err := h.wsService.Get(ws.ID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceDTO(*full))
}

// GetWorkspace returns the workspace resolved by the middleware.
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	wsCtx, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.Forbidden(c, "Workspace access context is missing")
		return
	}

	ws, err := h.wsService.Get(wsCtx.WorkspaceID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace": dto.ToWorkspaceDTO(*ws),
		"context":   wsCtx,
	})
}

// AddMember attaches a user to the workspace by email.
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	wsCtx, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.Forbidden(c, "Workspace access context is missing")
		return
	}

	type addMemberRequest struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role"`
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.wsService.AddMember(wsCtx, req.Email, req.Role)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*ws))
}

// UpdateMemberStatus flips a member between active and inactive.
func (h *WorkspaceHandler) UpdateMemberStatus(c *gin.Context) {
	wsCtx, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.Forbidden(c, "Workspace access context is missing")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || targetID == 0 {
		apierrors.BadRequest(c, "Invalid user id")
		return
	}

	type statusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ws, err := h.wsService.UpdateMemberStatus(wsCtx, targetID, models.MemberStatus(req.Status))
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*ws))
}

// RemoveMember detaches a member from the workspace.
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	wsCtx, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.Forbidden(c, "Workspace access context is missing")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || targetID == 0 {
		apierrors.BadRequest(c, "Invalid user id")
		return
	}

	ws, err := h.wsService.RemoveMember(wsCtx, targetID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*ws))
}

// ExportWorkspace returns the full workspace payload for download,
// gated by the caller's export entitlement.
func (h *WorkspaceHandler) ExportWorkspace(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	wsCtx, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.Forbidden(c, "Workspace access context is missing")
		return
	}

	level, err := h.entitlements.GetOrCreate(identity.UserID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load entitlements")
		return
	}
	if err := services.CanExportData(level); err != nil {
		apierrors.ForbiddenWithCode(c, apierrors.ErrCodeEntitlementDenied, err.Error())
		return
	}

	ws, err := h.wsService.Get(wsCtx.WorkspaceID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exported_at": time.Now().UTC(),
		"workspace":   dto.ToWorkspaceDTO(*ws),
	})
}

// WorkspaceAnalytics returns membership aggregates for the workspace,
// gated by the caller's analytics entitlement.
func (h *WorkspaceHandler) WorkspaceAnalytics(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	wsCtx, ok := middleware.GetWorkspace(c)
	if !ok {
		apierrors.Forbidden(c, "Workspace access context is missing")
		return
	}

	level, err := h.entitlements.GetOrCreate(identity.UserID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load entitlements")
		return
	}
	if err := services.CanAccessAnalytics(level); err != nil {
		apierrors.ForbiddenWithCode(c, apierrors.ErrCodeEntitlementDenied, err.Error())
		return
	}

	ws, err := h.wsService.Get(wsCtx.WorkspaceID)
	if err != nil {
		respondWorkspaceError(c, err)
		return
	}

	active := 0
	for _, m := range ws.Members {
		if m.Status == models.MemberStatusActive {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"workspace_id":   ws.ID,
		"total_members":  len(ws.Members),
		"active_members": active,
		"created_at":     ws.CreatedAt,
	})
}

func respondWorkspaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWorkspaceNameRequired),
		errors.Is(err, services.ErrInvalidMemberStatus),
		errors.Is(err, services.ErrCannotModifyOwner):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceNotActive),
		errors.Is(err, services.ErrNoWorkspaceAccess),
		errors.Is(err, services.ErrInsufficientRole):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrPlanCannotCreateWorkspace),
		errors.Is(err, services.ErrWorkspaceLimitReached),
		errors.Is(err, services.ErrPlanCannotInviteMembers),
		errors.Is(err, services.ErrTeamMemberLimitReached):
		apierrors.ForbiddenWithCode(c, apierrors.ErrCodeEntitlementDenied, err.Error())
	case apierrors.IsUnavailable(err):
		apierrors.ServiceUnavailable(c, "")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

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
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/prepbuddy/prepbuddy-api/internal/services"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
)

// AdminHandler coordinates the platform administration endpoints. All
// routes behind it require the platform admin role.
type AdminHandler struct {
	userService   *services.UserService
	wsService     *services.WorkspaceService
	creditService *services.CreditService
	entitlements  *services.EntitlementService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService *services.UserService, wsService *services.WorkspaceService, creditService *services.CreditService, entitlements *services.EntitlementService) *AdminHandler {
	return &AdminHandler{
		userService:   userService,
		wsService:     wsService,
		creditService: creditService,
		entitlements:  entitlements,
	}
}

// ListUsers returns users matching the search, filter and sort query
// parameters, paginated.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.UserFilter{
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if status := c.Query("status"); status != "" {
		s := models.UserStatus(status)
		filter.Status = &s
	}

	users, total, err := h.userService.List(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDTOs(users),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetUser returns a single user.
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser provisions an account with its personal workspace and
// access level, same as signup.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	type createRequest struct {
		Name     string `json:"name" binding:"required,min=1,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Create(services.AdminCreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser applies a partial admin update to a user.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type updateRequest struct {
		Name   *string `json:"name"`
		Email  *string `json:"email"`
		Phone  *string `json:"phone"`
		Role   *string `json:"role"`
		Status *string `json:"status"`
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.AdminUpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	if req.Role != nil {
		r := models.UserRole(*req.Role)
		input.Role = &r
	}
	if req.Status != nil {
		s := models.UserStatus(*req.Status)
		input.Status = &s
	}

	user, err := h.userService.Update(identity.UserID, userID, input)
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser deactivates a user, or removes the row permanently when
// hard=true is passed.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	hard := c.Query("hard") == "true"
	if err := h.userService.Delete(identity.UserID, userID, hard); err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

// ListUserWorkspaces returns the workspaces a user owns or is a member
// of, for the admin user detail view.
func (h *AdminHandler) ListUserWorkspaces(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.userService.Get(userID); err != nil {
		respondAdminError(c, err)
		return
	}

	workspaces, err := h.wsService.ListForUser(userID)
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workspaces": dto.ToWorkspaceDTOs(workspaces),
	})
}

// ListUserCredits returns a user's ledger entries, newest first.
func (h *AdminHandler) ListUserCredits(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	credits, total, err := h.creditService.List(userID, params)
	if err != nil {
		apierrors.InternalError(c, "Failed to list credits")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credits": credits,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// AddCredit appends a ledger entry for a user and applies its signed
// delta to the cached balance.
func (h *AdminHandler) AddCredit(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type addCreditRequest struct {
		Amount      int64     `json:"amount" binding:"required"`
		Type        string    `json:"type" binding:"required"`
		Description string    `json:"description" binding:"max=300"`
		ExpiryDate  time.Time `json:"expiry_date" binding:"required"`
	}

	var req addCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	credit, err := h.creditService.AddEntry(services.AddEntryInput{
		UserID:      userID,
		Amount:      req.Amount,
		Type:        models.CreditType(req.Type),
		Description: req.Description,
		ExpiryDate:  req.ExpiryDate,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusCreated, credit)
}

// UpdateCredit corrects a ledger entry. The entry's type is immutable.
func (h *AdminHandler) UpdateCredit(c *gin.Context) {
	creditID, ok := parseIDParam(c, "creditId")
	if !ok {
		return
	}

	type updateCreditRequest struct {
		Amount      *int64     `json:"amount"`
		Description *string    `json:"description"`
		ExpiryDate  *time.Time `json:"expiry_date"`
	}

	var req updateCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	credit, err := h.creditService.UpdateEntry(creditID, services.UpdateEntryInput{
		Amount:      req.Amount,
		Description: req.Description,
		ExpiryDate:  req.ExpiryDate,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, credit)
}

// ReconcileCredits recomputes the signed ledger sum for a user and
// reports drift from the cached balance.
func (h *AdminHandler) ReconcileCredits(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.creditService.Reconcile(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to reconcile credits")
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetAccessLevel returns a user's access level, materializing it from
// the platform defaults if missing.
func (h *AdminHandler) GetAccessLevel(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	level, err := h.entitlements.GetOrCreate(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load access level")
		return
	}

	c.JSON(http.StatusOK, level)
}

// UpdateAccessLevel applies a partial entitlement update. The credit
// balance is not updatable here; it only moves through the ledger.
func (h *AdminHandler) UpdateAccessLevel(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AccessLevelUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	level, err := h.entitlements.Update(userID, req)
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, level)
}

// GetDefaultAccess returns the platform default access configuration.
func (h *AdminHandler) GetDefaultAccess(c *gin.Context) {
	c.JSON(http.StatusOK, h.entitlements.DefaultAccess())
}

// UpdateDefaultAccess stores a new platform default access
// configuration, applied to users without an access level record.
func (h *AdminHandler) UpdateDefaultAccess(c *gin.Context) {
	var req services.DefaultAccessConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.entitlements.UpdateDefaultAccess(req); err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Analytics returns the platform dashboard aggregates.
func (h *AdminHandler) Analytics(c *gin.Context) {
	summary, err := h.userService.Analytics()
	if err != nil {
		apierrors.InternalError(c, "Failed to load analytics")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func respondAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrCreditFieldsMissing),
		errors.Is(err, services.ErrInvalidCreditType),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrCannotChangeOwnStatus),
		errors.Is(err, services.ErrCannotDeleteSelf):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrCreditNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword),
		errors.Is(err, services.ErrFailedToProvision):
		apierrors.InternalError(c, err.Error())
	case apierrors.IsUnavailable(err):
		apierrors.ServiceUnavailable(c, "")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/prepbuddy/prepbuddy-api/internal/errors"
	"github.com/prepbuddy/prepbuddy-api/internal/middleware"
	"github.com/prepbuddy/prepbuddy-api/internal/services"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
)

// CreditHandler exposes the caller's own credit balance and ledger.
type CreditHandler struct {
	creditService *services.CreditService
	entitlements  *services.EntitlementService
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditService *services.CreditService, entitlements *services.EntitlementService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
		entitlements:  entitlements,
	}
}

// GetBalance returns the caller's cached credit balance.
func (h *CreditHandler) GetBalance(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	balance, err := h.creditService.GetBalance(identity.UserID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance": balance,
	})
}

// ListCredits returns the caller's ledger entries, newest first.
func (h *CreditHandler) ListCredits(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	credits, total, err := h.creditService.List(identity.UserID, params)
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

// GetAccessLevel returns the caller's plan entitlements, materializing
// the record from the platform defaults if missing.
func (h *CreditHandler) GetAccessLevel(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	level, err := h.entitlements.GetOrCreate(identity.UserID)
	if err != nil {
		apierrors.InternalError(c, "Failed to load access level")
		return
	}

	c.JSON(http.StatusOK, level)
}

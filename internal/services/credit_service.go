package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/repository"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrCreditNotFound      = errors.New("credit record not found")
	ErrCreditFieldsMissing = errors.New("amount, type and expiry date are required")
	ErrInvalidCreditType   = errors.New("invalid credit type")
)

// CreditService maintains the append-style credit ledger and the cached
// running balance. The balance is only ever mutated through the
// repository's atomic increment, inside the same transaction as the
// ledger write.
type CreditService struct {
	creditRepo   repository.CreditRepository
	entitlements *EntitlementService
}

// NewCreditService creates a new CreditService.
func NewCreditService(creditRepo repository.CreditRepository, entitlements *EntitlementService) *CreditService {
	return &CreditService{
		creditRepo:   creditRepo,
		entitlements: entitlements,
	}
}

// AddEntryInput represents a new ledger entry.
type AddEntryInput struct {
	UserID      uint64
	Amount      int64
	Type        models.CreditType
	Description string
	ExpiryDate  time.Time
}

func validCreditType(t models.CreditType) bool {
	switch t {
	case models.CreditTypeAssigned, models.CreditTypePurchased, models.CreditTypeUsed:
		return true
	}
	return false
}

// AddEntry appends an entry and applies its signed delta to the cached
// balance: negative for used, positive for assigned/purchased.
func (s *CreditService) AddEntry(input AddEntryInput) (*models.Credit, error) {
	if input.Amount == 0 || input.Type == "" || input.ExpiryDate.IsZero() {
		return nil, ErrCreditFieldsMissing
	}
	if !validCreditType(input.Type) {
		return nil, ErrInvalidCreditType
	}

	// The access level row must exist before the balance increment.
	if _, err := s.entitlements.GetOrCreate(input.UserID); err != nil {
		return nil, err
	}

	delta := models.SignedDelta(input.Type, input.Amount)

	credit := &models.Credit{
		UserID:      input.UserID,
		Amount:      input.Amount,
		Type:        input.Type,
		Description: input.Description,
		ExpiryDate:  input.ExpiryDate,
	}
	if input.Type == models.CreditTypeUsed {
		credit.CreditUsed = absAmount(input.Amount)
	} else {
		credit.CreditAssign = absAmount(input.Amount)
	}

	if err := s.creditRepo.CreateWithBalanceDelta(credit, delta); err != nil {
		return nil, fmt.Errorf("failed to add credit: %w", err)
	}
	return credit, nil
}

// UpdateEntryInput carries the correctable fields of an entry. Type is
// immutable after creation; there is deliberately no field for it.
type UpdateEntryInput struct {
	Amount      *int64
	Description *string
	ExpiryDate  *time.Time
}

// UpdateEntry corrects an entry. An amount change applies the
// difference between old and new signed delta to the cached balance,
// never a plain overwrite.
func (s *CreditService) UpdateEntry(creditID uint64, input UpdateEntryInput) (*models.Credit, error) {
	credit, err := s.creditRepo.FindByID(creditID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreditNotFound
		}
		return nil, fmt.Errorf("failed to find credit: %w", err)
	}

	if input.Amount != nil && *input.Amount != credit.Amount {
		oldDelta := credit.Delta()
		newDelta := models.SignedDelta(credit.Type, *input.Amount)
		if err := s.creditRepo.CorrectAmount(credit, *input.Amount, newDelta-oldDelta); err != nil {
			return nil, fmt.Errorf("failed to correct credit amount: %w", err)
		}
	}

	changed := false
	if input.Description != nil {
		credit.Description = *input.Description
		changed = true
	}
	if input.ExpiryDate != nil {
		credit.ExpiryDate = *input.ExpiryDate
		changed = true
	}
	if changed {
		if err := s.creditRepo.Save(credit); err != nil {
			return nil, fmt.Errorf("failed to update credit: %w", err)
		}
	}

	return credit, nil
}

// GetBalance returns the cached running balance.
func (s *CreditService) GetBalance(userID uint64) (int64, error) {
	level, err := s.entitlements.GetOrCreate(userID)
	if err != nil {
		return 0, err
	}
	return level.CurrentCredits, nil
}

// List returns the user's ledger entries, newest first.
func (s *CreditService) List(userID uint64, params utils.PaginationParams) ([]models.Credit, int64, error) {
	credits, total, err := s.creditRepo.ListByUser(userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list credits: %w", err)
	}
	return credits, total, nil
}

// ReconciliationReport compares the cached balance against the signed
// sum recomputed from the ledger.
type ReconciliationReport struct {
	UserID        uint64 `json:"user_id"`
	CachedBalance int64  `json:"cached_balance"`
	LedgerSum     int64  `json:"ledger_sum"`
	Drift         int64  `json:"drift"`
}

// Reconcile independently recomputes the signed sum over the user's
// entries and reports any drift from the cached balance. Drift of zero
// is the invariant.
func (s *CreditService) Reconcile(userID uint64) (*ReconciliationReport, error) {
	balance, err := s.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.creditRepo.SumDeltas(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute ledger sum: %w", err)
	}
	return &ReconciliationReport{
		UserID:        userID,
		CachedBalance: balance,
		LedgerSum:     sum,
		Drift:         balance - sum,
	}, nil
}

func absAmount(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

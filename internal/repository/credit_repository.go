package repository

import (
	"github.com/prepbuddy/prepbuddy-api/internal/database"
	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
	"gorm.io/gorm"
)

// GormCreditRepository is a GORM implementation of CreditRepository
type GormCreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new CreditRepository
func NewCreditRepository(db *gorm.DB) CreditRepository {
	return &GormCreditRepository{db: db}
}

// CreateWithBalanceDelta inserts the ledger entry and applies its signed
// delta to the cached balance in one transaction. The balance moves via
// a SQL-side increment so concurrent grants for the same user never
// lose updates.
func (r *GormCreditRepository) CreateWithBalanceDelta(credit *models.Credit, delta int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(credit).Error; err != nil {
			return err
		}
		return incrementBalance(tx, credit.UserID, delta)
	})
}

// CorrectAmount updates the entry's amount and applies the difference
// between old and new signed delta to the balance in one transaction.
func (r *GormCreditRepository) CorrectAmount(credit *models.Credit, newAmount, diff int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := incrementBalance(tx, credit.UserID, diff); err != nil {
			return err
		}

		updates := map[string]interface{}{"amount": newAmount}
		if credit.Type == models.CreditTypeUsed {
			updates["credit_used"] = abs(newAmount)
		} else {
			updates["credit_assign"] = abs(newAmount)
		}

		res := tx.Model(&models.Credit{}).Where("id = ?", credit.ID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		credit.Amount = newAmount
		if credit.Type == models.CreditTypeUsed {
			credit.CreditUsed = abs(newAmount)
		} else {
			credit.CreditAssign = abs(newAmount)
		}
		return nil
	})
}

// Save persists non-balance-affecting fields
func (r *GormCreditRepository) Save(credit *models.Credit) error {
	return r.db.Model(credit).
		Select("description", "expiry_date").
		Updates(credit).Error
}

// FindByID finds a ledger entry
func (r *GormCreditRepository) FindByID(id uint64) (*models.Credit, error) {
	var credit models.Credit
	if err := r.db.First(&credit, id).Error; err != nil {
		return nil, err
	}
	return &credit, nil
}

// ListByUser lists a user's entries newest first
func (r *GormCreditRepository) ListByUser(userID uint64, params utils.PaginationParams) ([]models.Credit, int64, error) {
	query := r.db.Model(&models.Credit{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var credits []models.Credit
	err := query.Order("created_at DESC").
		Scopes(database.Paginate(params)).
		Find(&credits).Error
	if err != nil {
		return nil, 0, err
	}
	return credits, total, nil
}

// SumDeltas recomputes the signed sum over the user's entries directly
// in SQL, independently of the cached balance.
func (r *GormCreditRepository) SumDeltas(userID uint64) (int64, error) {
	var sum int64
	err := r.db.Model(&models.Credit{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -ABS(amount) ELSE ABS(amount) END), 0)", models.CreditTypeUsed).
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

// incrementBalance applies the delta as a SQL expression against the
// stored balance, never read-modify-write in application code.
func incrementBalance(tx *gorm.DB, userID uint64, delta int64) error {
	res := tx.Model(&models.AccessLevel{}).
		Where("user_id = ?", userID).
		UpdateColumn("current_credits", gorm.Expr("current_credits + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating the user fails inside the provisioning transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateWorkspace is returned when creating the personal workspace fails inside the provisioning transaction.
	ErrCreateWorkspace = errors.New("user repository: create workspace failed")
	// ErrCreateAccessLevel is returned when creating the access level fails inside the provisioning transaction.
	ErrCreateAccessLevel = errors.New("user repository: create access level failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithProvisioning creates a user, their personal workspace with the
// owner membership, the default access level and a welcome notification
// atomically. The workspace's derived active-member index is computed
// before the workspace row is written.
func (r *GormUserRepository) CreateWithProvisioning(user *models.User, ws *models.Workspace, member *models.WorkspaceMember, level *models.AccessLevel, note *models.Notification) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		ws.OwnerID = user.ID
		if ws.Slug == "" {
			ws.Slug = utils.GenerateWorkspaceSlug(ws.Name, user.ID)
		}
		member.UserID = user.ID
		ws.ActiveMemberIDs = models.ActiveMemberUserIDs([]models.WorkspaceMember{*member}, user.ID)

		if err := tx.Create(ws).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkspace, err)
		}

		member.WorkspaceID = ws.ID
		if err := tx.Create(member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateWorkspace, err)
		}

		if err := tx.Model(user).Update("default_workspace_id", ws.ID).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		level.UserID = user.ID
		if err := tx.Create(level).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateAccessLevel, err)
		}

		note.UserID = user.ID
		return tx.Create(note).Error
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetTokenHash finds a user by a non-expired reset token hash
func (r *GormUserRepository) FindByResetTokenHash(hash string) (*models.User, error) {
	var user models.User
	err := r.db.Where("reset_token_hash = ? AND reset_token_expiry > ?", hash, time.Now()).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists changes to a user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdateRefreshTokenHash overwrites the stored refresh token hash
func (r *GormUserRepository) UpdateRefreshTokenHash(userID uint64, hash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_hash", hash).Error
}

// ClearRefreshTokenHash revokes the user's refresh token
func (r *GormUserRepository) ClearRefreshTokenHash(userID uint64) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_hash", "").Error
}

// sortableUserFields whitelists the admin listing sort columns
var sortableUserFields = map[string]bool{
	"name":       true,
	"email":      true,
	"created_at": true,
	"last_login": true,
	"role":       true,
	"status":     true,
}

// List retrieves users with search, filters, sorting and pagination
func (r *GormUserRepository) List(filter UserFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sort := "created_at"
	if sortableUserFields[filter.Sort] {
		sort = filter.Sort
	}
	order := "DESC"
	if filter.Order == "asc" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 10
	}

	var users []models.User
	err := query.Order(fmt.Sprintf("%s %s", sort, order)).
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Delete soft deletes a user
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Delete(&models.User{}, id).Error
}

// HardDelete permanently removes a user row
func (r *GormUserRepository) HardDelete(id uint64) error {
	return r.db.Unscoped().Delete(&models.User{}, id).Error
}

// CountAll counts all users
func (r *GormUserRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// CountByStatus counts users with the given status
func (r *GormUserRepository) CountByStatus(status models.UserStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountCreatedSince counts users created at or after t
func (r *GormUserRepository) CountCreatedSince(t time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}

// CountCreatedPerDay buckets signups per calendar day since t
func (r *GormUserRepository) CountCreatedPerDay(since time.Time) ([]DailyCount, error) {
	var counts []DailyCount
	err := r.db.Model(&models.User{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

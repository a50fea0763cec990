package repository

import (
	"time"

	"github.com/prepbuddy/prepbuddy-api/internal/models"
	"github.com/prepbuddy/prepbuddy-api/internal/utils"
)

// UserFilter holds filtering options for the admin user listing
type UserFilter struct {
	Search   string
	Role     *models.UserRole
	Status   *models.UserStatus
	Sort     string
	Order    string
	Page     int
	PageSize int
}

// DailyCount is one bucket of the per-day signup series
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithProvisioning creates a user together with their personal
	// workspace, membership, access level and welcome notification in a
	// single transaction.
	CreateWithProvisioning(user *models.User, ws *models.Workspace, member *models.WorkspaceMember, level *models.AccessLevel, note *models.Notification) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by (lowercased) email
	FindByEmail(email string) (*models.User, error)

	// FindByResetTokenHash finds a user by a non-expired reset token hash
	FindByResetTokenHash(hash string) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error

	// UpdateRefreshTokenHash overwrites the stored refresh token hash,
	// invalidating any previously issued refresh token.
	UpdateRefreshTokenHash(userID uint64, hash string) error

	// ClearRefreshTokenHash revokes the user's refresh token
	ClearRefreshTokenHash(userID uint64) error

	// List retrieves users with search, filters, sorting and pagination
	List(filter UserFilter) ([]models.User, int64, error)

	// Delete soft deletes a user
	Delete(id uint64) error

	// HardDelete permanently removes a user row
	HardDelete(id uint64) error

	// Analytics counters
	CountAll() (int64, error)
	CountByStatus(status models.UserStatus) (int64, error)
	CountCreatedSince(t time.Time) (int64, error)
	CountCreatedPerDay(since time.Time) ([]DailyCount, error)
}

// WorkspaceRepository defines the interface for workspace data access.
// Every members mutation recomputes the derived active-member index and
// persists it in the same transaction as the mutation itself.
type WorkspaceRepository interface {
	// Create creates a workspace with its initial members list
	Create(ws *models.Workspace, members []models.WorkspaceMember) error

	// FindByID finds a workspace with members preloaded in join order
	FindByID(id uint64) (*models.Workspace, error)

	// ListForUser lists workspaces where the user is owner or member
	ListForUser(userID uint64) ([]models.Workspace, error)

	// CountActiveForUser counts active workspaces the user owns or is an
	// active member of; used for the entitlement cap check.
	CountActiveForUser(userID uint64) (int64, error)

	// CountAll counts all workspaces
	CountAll() (int64, error)

	// AddMember appends a member entry
	AddMember(wsID uint64, member *models.WorkspaceMember) error

	// UpdateMemberStatus flips a member entry between active and inactive
	UpdateMemberStatus(wsID, userID uint64, status models.MemberStatus) error

	// RemoveMember deletes a member entry
	RemoveMember(wsID, userID uint64) error
}

// AccessLevelRepository defines the interface for entitlement records
type AccessLevelRepository interface {
	// FindByUserID finds the user's access level
	FindByUserID(userID uint64) (*models.AccessLevel, error)

	// FirstOrCreate materializes the access level with the given defaults
	// unless a record already exists.
	FirstOrCreate(level *models.AccessLevel) error

	// Save persists changes to an access level. The credit balance is
	// excluded: it only moves through the credit repository's atomic
	// increment.
	Save(level *models.AccessLevel) error
}

// CreditRepository defines the interface for the credit ledger
type CreditRepository interface {
	// CreateWithBalanceDelta inserts the entry and applies its signed
	// delta to the cached balance in one transaction. The increment is a
	// SQL-side expression, never read-modify-write.
	CreateWithBalanceDelta(credit *models.Credit, delta int64) error

	// CorrectAmount updates the entry's amount and applies the difference
	// between old and new signed delta to the balance in one transaction.
	CorrectAmount(credit *models.Credit, newAmount, diff int64) error

	// Save persists non-balance-affecting fields (description, expiry)
	Save(credit *models.Credit) error

	// FindByID finds a ledger entry
	FindByID(id uint64) (*models.Credit, error)

	// ListByUser lists a user's entries newest first
	ListByUser(userID uint64, params utils.PaginationParams) ([]models.Credit, int64, error)

	// SumDeltas recomputes the signed sum over all of the user's entries,
	// independently of the cached balance.
	SumDeltas(userID uint64) (int64, error)
}

// NotificationRepository defines the interface for the notification feed
type NotificationRepository interface {
	Create(note *models.Notification) error
	ListByUser(userID uint64, params utils.PaginationParams) ([]models.Notification, int64, error)
	MarkRead(id, userID uint64) error
	MarkAllRead(userID uint64) error
}

// ServiceDataRepository defines the interface for platform configuration
type ServiceDataRepository interface {
	Get(key string) (*models.ServiceData, error)
	Upsert(key, accessTo, value string) error
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

type WorkspaceType string

const (
	WorkspaceTypePersonal WorkspaceType = "personal"
	WorkspaceTypeTeam     WorkspaceType = "team"
)

type WorkspaceStatus string

const (
	WorkspaceStatusActive   WorkspaceStatus = "active"
	WorkspaceStatusArchived WorkspaceStatus = "archived"
)

// UserIDList is stored as a JSON array column.
type UserIDList []uint64

func (l UserIDList) Value() (driver.Value, error) {
	if l == nil {
		l = UserIDList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *UserIDList) Scan(value interface{}) error {
	if value == nil {
		*l = UserIDList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for UserIDList", value)
	}
}

func (l UserIDList) Contains(id uint64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

type Workspace struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:varchar(500)" json:"description,omitempty"`
	OwnerID     uint64          `gorm:"not null;index" json:"owner_id"`
	Type        WorkspaceType   `gorm:"type:varchar(20);not null;default:'personal'" json:"type"`
	Status      WorkspaceStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	// ActiveMemberIDs is derived from the members list: {owner} plus all
	// members with status=active. It is recomputed inside the same
	// transaction as every members mutation, never patched directly.
	ActiveMemberIDs UserIDList `gorm:"type:json" json:"active_member_ids"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Owner   User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// ActiveMemberUserIDs computes the derived active-member index for a
// workspace: the owner plus every member whose status is active,
// deduplicated and sorted.
func ActiveMemberUserIDs(members []WorkspaceMember, ownerID uint64) UserIDList {
	seen := map[uint64]struct{}{ownerID: {}}
	for _, m := range members {
		if m.Status == MemberStatusActive {
			seen[m.UserID] = struct{}{}
		}
	}

	ids := make(UserIDList, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

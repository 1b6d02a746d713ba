package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles a user can hold. Role gates the admin surface and campaign
// creation; every authenticated caller can invest and vote.
const (
	RoleAdmin    = "admin"
	RoleCreator  = "creator"
	RoleInvestor = "investor"
)

// User Model
type User struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`         // Primary key (uuid)
	Username  string `gorm:"unique;not null" json:"username"`        // Unique username
	Password  string `gorm:"not null" json:"-"`                      // Hashed password, never serialized
	Role      string `gorm:"default:investor" json:"role"`           // Role: admin, creator or investor
	Wallet    Wallet `gorm:"foreignKey:UserID" json:"wallet"`        // One-to-one relationship with Wallet
	CreatedAt int64  `gorm:"autoCreateTime:milli" json:"created_at"` // Timestamp of creation in milliseconds
}

// BeforeCreate assigns a uuid primary key when none was supplied
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xrkr80hd/EZApp/utils"
)

// Consultant is an operator account in the directory. The portal never stores
// business documents here; customer records live in the local key-value store.
type Consultant struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	Active       bool      `gorm:"default:true" json:"active"`
	LastLogin    *time.Time `json:"last_login"`

	gorm.Model `json:"-"`
}

// Initialize UUID and hash the password before creating
func (u *Consultant) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.PasswordHash != "" && !isBcryptHash(u.PasswordHash) {
		hashed, err := utils.HashPassword(u.PasswordHash)
		if err != nil {
			return err
		}
		u.PasswordHash = hashed
	}
	return
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (s[:4] == "$2a$" || s[:4] == "$2b$" || s[:4] == "$2y$")
}

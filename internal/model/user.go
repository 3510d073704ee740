package model

import "time"

// User data model. PasswordHash holds a bcrypt hash and never leaves the
// service in a response.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(191);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Admin        bool      `json:"admin" gorm:"not null;default:false"`
	Articles     []Article `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin is safe to call on a nil user, which is never an admin.
func (u *User) IsAdmin() bool {
	return u != nil && u.Admin
}

package models

import (
	"strings"
	"time"
)

// User is a registered site member
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Username     string    `gorm:"type:varchar(150);not null;uniqueIndex:auth_user_username_ux;column:username"`
	Email        string    `gorm:"type:varchar(254);not null;default:'';column:email"`
	FirstName    string    `gorm:"type:varchar(150);not null;default:'';column:first_name"`
	LastName     string    `gorm:"type:varchar(150);not null;default:'';column:last_name"`
	PasswordHash string    `gorm:"type:varchar(128);not null;column:password"`
	IsStaff      bool      `gorm:"not null;default:false;column:is_staff"`
	DateJoined   time.Time `gorm:"not null;autoCreateTime;column:date_joined"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "auth_user"
}

// FullName returns "First Last", or the username when neither is set
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// All returns every model managed by the schema migration, parents first
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Location{},
		&Post{},
		&Comment{},
	}
}

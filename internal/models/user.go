package models

import (
	"time"
)

// User represents a store customer or administrator.
type User struct {
	BaseModel
	FirstName    string `gorm:"not null;default:''"`
	LastName     string `gorm:"not null;default:''"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	Phone        string
	DateOfBirth  *time.Time `gorm:"type:date"`
	IsAdmin      bool       `gorm:"not null;default:false"`
	IsVerified   bool       `gorm:"not null;default:false"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// OTPPurpose scopes a one-time code to a single flow.
type OTPPurpose string

const (
	OTPPurposeRegister OTPPurpose = "register"
	OTPPurposeLogin    OTPPurpose = "login"
	OTPPurposeReset    OTPPurpose = "reset"
)

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	switch p {
	case OTPPurposeRegister, OTPPurposeLogin, OTPPurposeReset:
		return true
	}
	return false
}

// OTPCode is a single-use numeric code sent by email.
type OTPCode struct {
	BaseModel
	Email     string     `gorm:"not null;index:idx_otp_lookup"`
	Code      string     `gorm:"size:6;not null"`
	Purpose   OTPPurpose `gorm:"size:20;not null;index:idx_otp_lookup"`
	ExpiresAt time.Time  `gorm:"not null"`
	Used      bool       `gorm:"not null;default:false"`
}

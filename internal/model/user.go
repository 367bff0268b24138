package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is an operator of the business. The business profile fields are
// copied onto our side of every invoice the user creates or edits.
type User struct {
	BaseModel
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string      `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	PhoneNumber  string      `gorm:"type:varchar(20)" json:"phone_number"`
	IsActive     bool        `gorm:"default:true" json:"is_active"`
	Privileges   []Privilege `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`
	TokenVersion string      `gorm:"type:varchar(255);default:''" json:"-"` // Single session enforcement
	LastSeenAt   *time.Time  `json:"last_seen_at,omitempty"`

	BusinessName    string `gorm:"type:varchar(255)" json:"business_name"`
	BusinessAddress string `gorm:"type:text" json:"business_address"`
	BusinessTaxID   string `gorm:"type:varchar(32)" json:"business_tax_id"`
	BusinessContact string `gorm:"type:varchar(64)" json:"business_contact"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// GetPrivilegeCodes returns a slice of all privilege codes for this user
func (u *User) GetPrivilegeCodes() []string {
	codes := make([]string, len(u.Privileges))
	for i, p := range u.Privileges {
		codes[i] = p.Code
	}
	return codes
}

// SessionIdle reports whether the session went longer than timeout without
// activity. A zero timeout never expires.
func (u *User) SessionIdle(timeout time.Duration, now time.Time) bool {
	if timeout <= 0 {
		return false
	}
	return u.LastSeenAt == nil || now.Sub(*u.LastSeenAt) > timeout
}

func (u *User) BusinessProfile() Party {
	return Party{
		Name:    u.BusinessName,
		Address: u.BusinessAddress,
		TaxID:   u.BusinessTaxID,
		Contact: u.BusinessContact,
	}
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	IsActive    bool       `json:"is_active"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	Privileges  []string   `json:"privileges"`
	Business    Party      `json:"business"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		LastSeenAt:  u.LastSeenAt,
		Privileges:  u.GetPrivilegeCodes(),
		Business:    u.BusinessProfile(),
	}
}

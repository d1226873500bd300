package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the canonical set of actor roles. Raw role strings from tokens,
// requests, or legacy records must pass through NormalizeRole before any
// routing or transition decision.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleHod     Role = "hod"
	RoleDean    Role = "dean"
	RoleAdmin   Role = "admin"
)

// NormalizeRole maps a raw role string (including legacy aliases) to its
// canonical Role. The second return value is false for unknown roles.
func NormalizeRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "student", "user":
		return RoleStudent, true
	case "staff":
		return RoleStaff, true
	case "hod", "headofdepartment", "head_of_department", "head-of-department":
		return RoleHod, true
	case "dean":
		return RoleDean, true
	case "admin", "administrator":
		return RoleAdmin, true
	default:
		return "", false
	}
}

// IsLeadership reports whether the role can approve and reroute complaints.
func (r Role) IsLeadership() bool {
	return r == RoleHod || r == RoleDean || r == RoleAdmin
}

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Username   string    `gorm:"uniqueIndex;not null" json:"username"`
	Password   string    `gorm:"not null" json:"-"`
	FullName   string    `gorm:"size:200" json:"full_name"`
	Role       Role      `gorm:"size:20;not null;default:'student';index" json:"role"`
	Department string    `gorm:"size:100;index" json:"department"`
	IsApproved bool      `gorm:"default:false" json:"is_approved"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	IsRejected bool      `gorm:"default:false" json:"is_rejected"`

	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Actor is the resolved identity context attached to every authenticated
// request. The complaint engine trusts it completely; it is built exactly
// once, in the auth middleware.
type Actor struct {
	ID         uuid.UUID
	Role       Role
	Department string
	IsActive   bool
	IsApproved bool
}

func (u *User) ToActor() Actor {
	return Actor{
		ID:         u.ID,
		Role:       u.Role,
		Department: u.Department,
		IsActive:   u.IsActive,
		IsApproved: u.IsApproved,
	}
}

type UserRegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Password   string `json:"password" validate:"required,min=6"`
	FullName   string `json:"full_name" validate:"max=200"`
	Role       string `json:"role" validate:"max=30"`
	Department string `json:"department" validate:"max=100"`
}

type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	IsApproved bool      `json:"is_approved"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.Role,
		Department: u.Department,
		IsApproved: u.IsApproved,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserFilter struct {
	Role       *Role
	Department string
	Approved   *bool
	Active     *bool
	Search     string
	Page       int
	Limit      int
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // Hide from JSON responses
	Role      string             `bson:"role" json:"role"`
	Status    string             `bson:"status" json:"status"`
	LastLogin *time.Time         `bson:"lastLogin" json:"lastLogin"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the public shape returned by signup and delete.
type UserSummary struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
	Role      string             `json:"role,omitempty"`
	Status    string             `json:"status,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
	}
}

// UserStats holds the per-status and per-role counts of a user listing.
type UserStats struct {
	TotalActive    int64 `json:"totalActive"`
	TotalInactive  int64 `json:"totalInactive"`
	TotalSuspended int64 `json:"totalSuspended"`
	TotalAdmins    int64 `json:"totalAdmins"`
	TotalUsers     int64 `json:"totalUsers"`
}

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

func IsValidUserStatus(status string) bool {
	switch status {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

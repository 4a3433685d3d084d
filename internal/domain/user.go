package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin         Role = "admin"
	RoleTechnician    Role = "technician"
	RoleSubcontractor Role = "subcontractor"
	RoleClient        Role = "client"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

package domain

import "time"

type Technician struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"fullName"`
	Email       *string   `json:"email"`
	Specialties []string  `json:"specialties"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}

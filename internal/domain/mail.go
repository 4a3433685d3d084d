package domain

import "time"

const (
	MailTypeCreateUser       = "create_user"
	MailTypeResetPassword    = "reset_password"
	MailTypeMissionRelocated = "mission_relocated"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type MissionRelocatedMailData struct {
	TechnicianName string    `json:"technicianName"`
	MissionID      int64     `json:"missionID"`
	ClientName     string    `json:"clientName"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	WindowStart    time.Time `json:"windowStart"`
	WindowEnd      time.Time `json:"windowEnd"`
}

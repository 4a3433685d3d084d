package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/fieldops-hvac/planning/backend/internal/domain"
)

func (h *Handler) GetTechnicians(w http.ResponseWriter, r *http.Request) {
	var (
		technicians []*domain.Technician
		err         error
	)

	// 排班表只需要在职的技术员，管理页面则需要所有技术员
	if r.URL.Query().Get("all") == "true" {
		technicians, err = h.repository.GetAllTechnicians()
	} else {
		technicians, err = h.repository.GetActiveTechnicians()
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取技术员列表成功", technicians)
}

func (h *Handler) GetTechnician(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TechnicianCtx).(*domain.Technician)
	h.successResponse(w, r, "获取技术员信息成功", t)
}

func (h *Handler) CreateTechnician(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName    string   `json:"fullName" validate:"required"`
		Email       *string  `json:"email" validate:"omitempty,email"`
		Specialties []string `json:"specialties" validate:"dive,required"`
		Color       string   `json:"color" validate:"required,hexcolor"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t := &domain.Technician{
		FullName:    req.FullName,
		Email:       req.Email,
		Specialties: req.Specialties,
		Color:       req.Color,
		IsActive:    true,
	}
	if t.Specialties == nil {
		t.Specialties = []string{}
	}

	if err := h.repository.CreateTechnician(t); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建技术员成功", t)
}

func (h *Handler) UpdateTechnician(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(TechnicianCtx).(*domain.Technician)

	var req struct {
		FullName    *string   `json:"fullName" validate:"omitempty,min=1"`
		Email       *string   `json:"email" validate:"omitempty,email"`
		Specialties *[]string `json:"specialties" validate:"omitempty,dive,required"`
		Color       *string   `json:"color" validate:"omitempty,hexcolor"`
		IsActive    *bool     `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.FullName != nil {
		t.FullName = *req.FullName
	}
	if req.Email != nil {
		t.Email = req.Email
	}
	if req.Specialties != nil {
		t.Specialties = *req.Specialties
	}
	if req.Color != nil {
		t.Color = *req.Color
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateTechnician(t); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新技术员信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新技术员信息成功", t)
}

package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops-hvac/planning/backend/internal/config"
	"github.com/fieldops-hvac/planning/backend/internal/domain"
	"github.com/fieldops-hvac/planning/backend/internal/planning"
	"github.com/fieldops-hvac/planning/backend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/redis/go-redis/v9"
)

// MailPublisher 将邮件投递到消息队列中，由 mail worker 负责真正发送
type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

// Locker 是一个非阻塞的分布式锁，用于防止同一个任务被同时拖放
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key string, token string) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailer      MailPublisher
	redisClient *redis.Client
	locker      Locker
	planning    planning.Options

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailer MailPublisher, rdb *redis.Client, locker Locker) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Planning.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无法加载时区 %s: %w", cfg.Planning.Timezone, err)
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailer:      mailer,
		redisClient: rdb,
		locker:      locker,
		planning: planning.Options{
			Location:      loc,
			FirstHour:     cfg.Planning.FirstHour,
			LastHour:      cfg.Planning.LastHour,
			BaselineHours: cfg.Planning.BaselineHours,
		},

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	adminOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin})
	staffOnly := h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleTechnician, domain.RoleSubcontractor})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
			})
		})

		r.Route("/technicians", func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/", h.GetTechnicians)
			r.With(adminOnly).Post("/", h.CreateTechnician)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.technician)
				r.Get("/", h.GetTechnician)
				r.With(adminOnly).Patch("/", h.UpdateTechnician)
			})
		})

		r.Route("/missions", func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/", h.GetMissions)
			r.With(adminOnly).Post("/", h.CreateMission)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.mission)
				r.Get("/", h.GetMission)
				r.Patch("/status", h.UpdateMissionStatus) // 技术员和分包商在现场也需要更新任务状态
				r.With(adminOnly).Post("/relocate", h.RelocateMission)
			})
		})

		r.Route("/planning", func(r chi.Router) {
			r.Use(staffOnly)
			r.Get("/week", h.GetWeekPlanning)
			r.Get("/week/export", h.ExportWeekPlanning)
			r.Get("/day", h.GetDayPlanning)
		})
	})
}

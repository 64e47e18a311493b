package handler

import (
	"github.com/hostedid/accounts/internal/config"
	"github.com/hostedid/accounts/internal/database"
	"github.com/hostedid/accounts/internal/logger"
	"github.com/hostedid/accounts/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	db      *database.Postgres
	rdb     *database.Redis
	log     *logger.Logger
	cfg     *config.Config
	userSvc *service.UserService
}

// New creates a new Handler instance
func New(db *database.Postgres, rdb *database.Redis, log *logger.Logger, cfg *config.Config, userSvc *service.UserService) *Handler {
	return &Handler{
		db:      db,
		rdb:     rdb,
		log:     log,
		cfg:     cfg,
		userSvc: userSvc,
	}
}

package handler

import (
	"github.com/d60-Lab/post-discovery/config"
	"github.com/d60-Lab/post-discovery/internal/service"
)

type Handler struct {
	search service.SearchService
	cfg    *config.Config
}

func NewHandler(search service.SearchService, cfg *config.Config) *Handler {
	return &Handler{search: search, cfg: cfg}
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/post-discovery/internal/api/middleware"
	"github.com/d60-Lab/post-discovery/internal/repository"
	"github.com/d60-Lab/post-discovery/internal/service"
	"github.com/d60-Lab/post-discovery/pkg/response"
)

type searchQuery struct {
	Q        string `form:"q"`
	PostType string `form:"post_type"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Seed     string `form:"seed"`
}

// Search 个性化搜索/发现
// @Summary 个性化搜索（关注/公共双池混合，种子确定性排序）
// @Tags 搜索
// @Produce json
// @Param q query string true "搜索串，~ 表示全量浏览"
// @Param post_type query string false "内容类型" Enums(image, video, reel)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Param seed query string false "确定性种子" default(defaultseed)
// @Param X-User-ID header string true "请求者身份"
// @Success 200 {object} service.SearchResult
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /search [get]
func (h *Handler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = h.cfg.Search.DefaultLimit
	}
	if q.Limit > h.cfg.Search.MaxLimit {
		q.Limit = h.cfg.Search.MaxLimit
	}
	if q.Seed == "" {
		q.Seed = h.cfg.Search.DefaultSeed
	}

	res, err := h.search.Search(c.Request.Context(), service.SearchRequest{
		UserID:   c.GetString(middleware.CtxUserID),
		Query:    q.Q,
		PostType: q.PostType,
		Page:     q.Page,
		Limit:    q.Limit,
		Seed:     q.Seed,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmptyQuery) || errors.Is(err, repository.ErrInvalidPostType) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, res)
}

type suggestQuery struct {
	Q        string `form:"q"`
	PostType string `form:"post_type"`
	Limit    int    `form:"limit"`
}

// Suggest 搜索联想
// @Summary 搜索联想（最近命中的内容 / 用户）
// @Tags 搜索
// @Produce json
// @Param q query string false "搜索串"
// @Param post_type query string false "image|video|reel|users"
// @Param limit query int false "条数" default(5)
// @Param X-User-ID header string true "请求者身份"
// @Success 200 {object} service.SuggestionResult
// @Failure 401 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /suggestions [get]
func (h *Handler) Suggest(c *gin.Context) {
	var q suggestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if q.Limit < 1 {
		q.Limit = h.cfg.Search.SuggestLimit
	}
	if q.Limit > h.cfg.Search.MaxLimit {
		q.Limit = h.cfg.Search.MaxLimit
	}

	res, err := h.search.Suggest(c.Request.Context(), service.SuggestionRequest{
		UserID:   c.GetString(middleware.CtxUserID),
		Query:    q.Q,
		PostType: q.PostType,
		Limit:    q.Limit,
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, res)
}

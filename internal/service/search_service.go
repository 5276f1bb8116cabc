package service

import (
	"context"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/post-discovery/internal/client"
	"github.com/d60-Lab/post-discovery/internal/model"
	"github.com/d60-Lab/post-discovery/internal/rank"
	"github.com/d60-Lab/post-discovery/internal/repository"
	"github.com/d60-Lab/post-discovery/pkg/logger"
)

// SearchRequest 单次搜索请求，不落任何持久状态。
// seed + page 在数据快照不变时完全决定输出顺序。
type SearchRequest struct {
	UserID   string
	Query    string
	PostType string
	Page     int
	Limit    int
	Seed     string
}

// ResultItem 内容条目投影：附加作者档案与关注来源标记
type ResultItem struct {
	model.Post
	Author       *client.UserProfile `json:"user"`
	FromFollowed bool                `json:"is_from_followed_user"`
}

type ContentRatio struct {
	FollowedPercentage int `json:"followed_percentage"`
	PublicPercentage   int `json:"public_percentage"`
}

// SearchResult 与网关约定的扁平响应体
type SearchResult struct {
	Posts              []ResultItem `json:"posts"`
	SearchQuery        string       `json:"search_query"`
	PostType           string       `json:"post_type"`
	Page               int          `json:"page"`
	Limit              int          `json:"limit"`
	Total              int64        `json:"total"`
	TotalPages         int          `json:"totalPages"`
	FollowedUsersCount int          `json:"followed_users_count"`
	FollowedPostsCount int          `json:"followed_posts_count"`
	PublicPostsCount   int          `json:"public_posts_count"`
	ContentRatio       ContentRatio `json:"content_ratio"`
	IsSearch           bool         `json:"is_search"`
}

type SuggestionRequest struct {
	UserID   string
	Query    string
	PostType string
	Limit    int
}

// PostSuggestion / UserSuggestion 两种联想条目，形状不同
type PostSuggestion struct {
	PostID      string              `json:"post_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	PostType    string              `json:"post_type"`
	IsReel      bool                `json:"is_reel"`
	Author      *client.UserProfile `json:"user"`
	Type        string              `json:"type"`
}

type UserSuggestion struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	ProfileImgURL string `json:"profile_img_url"`
	IsVerified    bool   `json:"is_verified"`
	Type          string `json:"type"`
}

type SuggestionResult struct {
	Suggestions []any `json:"suggestions"`
}

// SearchService 个性化搜索/发现的排序引擎
type SearchService interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	Suggest(ctx context.Context, req SuggestionRequest) (*SuggestionResult, error)
}

type searchService struct {
	posts    repository.PostRepository
	graph    client.SocialGraphClient
	identity client.IdentityClient
}

func NewSearchService(posts repository.PostRepository, graph client.SocialGraphClient, identity client.IdentityClient) SearchService {
	return &searchService{posts: posts, graph: graph, identity: identity}
}

// poolPlan 单页的双池配额与偏移
type poolPlan struct {
	followedQuota  int
	publicTarget   int
	followedOffset int
	publicOffset   int
	globalOffset   int
}

// planPools 按 20/80 把一页拆给关注池与公共池：关注配额 ceil(L*0.2)，
// 偏移按同比例向下取整。每页独立按比例取整，不构成全序的精确划分：
// 翻页之间条目可能重复或被跳过。这是双池独立分页换取内容混合策略的
// 既有取舍，不要改成单一全序查询去“修复”。
func planPools(page, limit, followeeCount int) poolPlan {
	p := poolPlan{globalOffset: (page - 1) * limit}
	p.followedQuota = (limit + 4) / 5
	if followeeCount == 0 {
		// 无关注时整页都来自公共池
		p.followedQuota = 0
	}
	p.publicTarget = limit - p.followedQuota
	p.followedOffset = p.globalOffset / 5
	p.publicOffset = p.globalOffset * 4 / 5
	return p
}

func (s *searchService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	f, err := repository.NewSearchFilter(req.Query, req.PostType)
	if err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	// 协作方故障只降级为纯公共池，不中断请求，也不在本层重试
	following, err := s.graph.Following(ctx, req.UserID)
	if err != nil {
		logger.Warn("fetch following failed, degrading to public only",
			zap.String("user_id", req.UserID), zap.Error(err))
		following = nil
	}
	followedSet := make(map[string]bool, len(following))
	for _, id := range following {
		followedSet[id] = true
	}

	total, err := s.posts.CountEligible(ctx, f)
	if err != nil {
		logger.Error("count eligible posts failed", zap.String("query", req.Query), zap.Error(err))
		return nil, err
	}

	plan := planPools(req.Page, req.Limit, len(following))
	collected := make([]*model.Post, 0, req.Limit)

	followed, err := s.posts.SearchFollowed(ctx, f, following, req.Seed, plan.followedOffset, plan.followedQuota)
	if err != nil {
		logger.Error("followed pool query failed", zap.String("query", req.Query), zap.Error(err))
		return nil, err
	}
	collected = append(collected, followed...)

	// 关注池缺口并入公共池目标，而不是悄悄丢掉
	publicTarget := plan.publicTarget + (plan.followedQuota - len(followed))
	exclude := append(append(make([]string, 0, len(following)+1), following...), req.UserID)
	public, err := s.posts.SearchPublic(ctx, f, exclude, req.Seed, plan.publicOffset, publicTarget)
	if err != nil {
		logger.Error("public pool query failed", zap.String("query", req.Query), zap.Error(err))
		return nil, err
	}
	collected = append(collected, public...)

	// 仍不满页则对全量可见语料补位（只排除本人），偏移越过已取部分
	if remaining := req.Limit - len(collected); remaining > 0 {
		extra, err := s.posts.SearchAny(ctx, f, req.UserID, req.Seed, plan.globalOffset+len(collected), remaining)
		if err != nil {
			logger.Error("backfill query failed", zap.String("query", req.Query), zap.Error(err))
			return nil, err
		}
		collected = append(collected, extra...)
	}

	// 整页确定性洗牌，把两个池的条目交错开
	rank.Shuffle(collected, req.Seed, req.Page)

	items := s.enrich(ctx, collected, followedSet)

	followedCount := 0
	for _, it := range items {
		if it.FromFollowed {
			followedCount++
		}
	}
	publicCount := len(items) - followedCount

	res := &SearchResult{
		Posts:              items,
		PostType:           req.PostType,
		Page:               req.Page,
		Limit:              req.Limit,
		Total:              total,
		TotalPages:         int((total + int64(req.Limit) - 1) / int64(req.Limit)),
		FollowedUsersCount: len(following),
		FollowedPostsCount: followedCount,
		PublicPostsCount:   publicCount,
		IsSearch:           f.IsSearch(),
	}
	if res.PostType == "" {
		res.PostType = "all"
	}
	if f.IsSearch() {
		res.SearchQuery = f.Query
	}
	if len(items) > 0 {
		res.ContentRatio = ContentRatio{
			FollowedPercentage: int(math.Round(float64(followedCount) / float64(len(items)) * 100)),
			PublicPercentage:   int(math.Round(float64(publicCount) / float64(len(items)) * 100)),
		}
	}
	return res, nil
}

// enrich 对每个结果条目并发拉取作者档案，按下标回填，
// 最终顺序与各请求完成顺序无关。单条失败只置空该条的 user。
// 并发度以页大小为上界（limit 本身受接口上限约束）。
func (s *searchService) enrich(ctx context.Context, posts []*model.Post, followed map[string]bool) []ResultItem {
	items := make([]ResultItem, len(posts))
	var wg sync.WaitGroup
	for i, p := range posts {
		wg.Add(1)
		go func(i int, p *model.Post) {
			defer wg.Done()
			items[i] = ResultItem{Post: *p, FromFollowed: followed[p.UserID]}
			author, err := s.identity.GetUser(ctx, p.UserID)
			if err != nil {
				logger.Warn("fetch author profile failed",
					zap.String("post_id", p.ID), zap.String("user_id", p.UserID), zap.Error(err))
				return
			}
			items[i].Author = author
		}(i, p)
	}
	wg.Wait()
	return items
}

func (s *searchService) Suggest(ctx context.Context, req SuggestionRequest) (*SuggestionResult, error) {
	out := &SuggestionResult{Suggestions: []any{}}
	q := strings.TrimSpace(req.Query)
	// 联想场景空串不是错误，直接给空列表
	if q == "" {
		return out, nil
	}
	if req.Limit < 1 {
		req.Limit = 5
	}

	if req.PostType == "users" {
		page, err := s.identity.SearchUsers(ctx, q, 1, req.Limit)
		if err != nil {
			logger.Warn("user suggestions failed", zap.String("query", q), zap.Error(err))
			return out, nil
		}
		for _, u := range page.Users {
			out.Suggestions = append(out.Suggestions, UserSuggestion{
				UserID:        u.UserID,
				Username:      u.Username,
				Name:          u.Name,
				ProfileImgURL: u.ProfileImgURL,
				IsVerified:    u.IsVerified,
				Type:          "user",
			})
		}
		return out, nil
	}

	// 联想不强校验类型，未知类型退化为不过滤
	postType := req.PostType
	switch postType {
	case "image", "video", "reel":
	default:
		postType = ""
	}
	f, err := repository.NewSearchFilter(q, postType)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.SearchRecent(ctx, f, req.Limit)
	if err != nil {
		logger.Error("suggestion query failed", zap.String("query", q), zap.Error(err))
		return nil, err
	}
	items := s.enrich(ctx, posts, map[string]bool{})
	for _, it := range items {
		out.Suggestions = append(out.Suggestions, PostSuggestion{
			PostID:      it.ID,
			Title:       it.Title,
			Description: it.Description,
			PostType:    it.PostType,
			IsReel:      it.IsReel,
			Author:      it.Author,
			Type:        "post",
		})
	}
	return out, nil
}

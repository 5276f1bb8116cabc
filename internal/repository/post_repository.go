package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/post-discovery/internal/model"
)

// 校验错误直接携带对外的提示文案，handler 原样透出
var (
	ErrEmptyQuery      = errors.New("Search query is required. Use '~' to fetch all posts.")
	ErrInvalidPostType = errors.New("Invalid post_type. Must be one of: image, video, reel")
)

// BrowseSentinel 纯浏览模式的查询串，不加任何文本谓词
const BrowseSentinel = "~"

// SearchFilter 把原始查询（文本 + 类型）翻译成内容谓词。
// 所有者的纳入/排除条件由各池查询自带，不在这里。
type SearchFilter struct {
	Query    string
	PostType string
	browse   bool
}

func NewSearchFilter(query, postType string) (*SearchFilter, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	switch postType {
	case "", "image", "video", "reel":
	default:
		return nil, ErrInvalidPostType
	}
	return &SearchFilter{Query: q, PostType: postType, browse: q == BrowseSentinel}, nil
}

// IsSearch 是否为真正的搜索（非 ~ 浏览）
func (f *SearchFilter) IsSearch() bool { return !f.browse }

// Apply 组装基础谓词：活跃且公开，外加文本与类型过滤。
// 文本匹配对 title/description/标签的扁平文本做不区分大小写的子串匹配。
func (f *SearchFilter) Apply(tx *gorm.DB) *gorm.DB {
	tx = tx.Where("is_active = ?", true).Where("visibility = ?", model.VisibilityPublic)
	if !f.browse {
		pat := "%" + strings.ToLower(f.Query) + "%"
		tx = tx.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(CAST(post_tags AS TEXT)) LIKE ?",
			pat, pat, pat,
		)
	}
	switch f.PostType {
	case "reel":
		// reel 是 video 的短视频变体，不是独立类型
		tx = tx.Where("post_type = ? AND is_reel = ?", model.PostTypeVideo, true)
	case "video":
		tx = tx.Where("post_type = ? AND is_reel = ?", model.PostTypeVideo, false)
	case "image":
		tx = tx.Where("post_type = ?", model.PostTypeImage)
	}
	return tx
}

type PostRepository interface {
	CountEligible(ctx context.Context, f *SearchFilter) (int64, error)
	SearchFollowed(ctx context.Context, f *SearchFilter, followeeIDs []string, seed string, offset, limit int) ([]*model.Post, error)
	SearchPublic(ctx context.Context, f *SearchFilter, excludeOwnerIDs []string, seed string, offset, limit int) ([]*model.Post, error)
	SearchAny(ctx context.Context, f *SearchFilter, requesterID, seed string, offset, limit int) ([]*model.Post, error)
	SearchRecent(ctx context.Context, f *SearchFilter, limit int) ([]*model.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) base(ctx context.Context, f *SearchFilter) *gorm.DB {
	return f.Apply(r.db.WithContext(ctx).Model(&model.Post{}))
}

// rankOrder 按 rank_key(seed, post_id) 升序，post_id 兜底打破 32 位碰撞，
// 保证全序稳定、LIMIT/OFFSET 可复现
func rankOrder(seed string) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                "rank_key(?, post_id) ASC, post_id ASC",
		Vars:               []any{seed},
		WithoutParentheses: true,
	}}
}

// CountEligible 统计命中过滤条件的全部可见内容（不做所有者排除，不分页）
func (r *postRepository) CountEligible(ctx context.Context, f *SearchFilter) (int64, error) {
	var cnt int64
	err := r.base(ctx, f).Count(&cnt).Error
	return cnt, err
}

// SearchFollowed 关注池：仅限被关注作者的内容
func (r *postRepository) SearchFollowed(ctx context.Context, f *SearchFilter, followeeIDs []string, seed string, offset, limit int) ([]*model.Post, error) {
	if limit <= 0 || len(followeeIDs) == 0 {
		return nil, nil
	}
	var res []*model.Post
	err := r.base(ctx, f).
		Where("user_id IN ?", followeeIDs).
		Clauses(rankOrder(seed)).
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

// SearchPublic 公共池：排除给定作者（被关注者 + 请求者本人）
func (r *postRepository) SearchPublic(ctx context.Context, f *SearchFilter, excludeOwnerIDs []string, seed string, offset, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return nil, nil
	}
	tx := r.base(ctx, f)
	if len(excludeOwnerIDs) > 0 {
		tx = tx.Where("user_id NOT IN ?", excludeOwnerIDs)
	}
	var res []*model.Post
	err := tx.Clauses(rankOrder(seed)).Offset(offset).Limit(limit).Find(&res).Error
	return res, err
}

// SearchAny 补位查询：整个可见语料，仅排除请求者本人
func (r *postRepository) SearchAny(ctx context.Context, f *SearchFilter, requesterID, seed string, offset, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return nil, nil
	}
	var res []*model.Post
	err := r.base(ctx, f).
		Where("user_id <> ?", requesterID).
		Clauses(rankOrder(seed)).
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

// SearchRecent 搜索联想用：按时间倒序取最近命中的内容
func (r *postRepository) SearchRecent(ctx context.Context, f *SearchFilter, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		return nil, nil
	}
	var res []*model.Post
	err := r.base(ctx, f).
		Order("created_at DESC, post_id DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

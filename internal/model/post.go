package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	PostTypeText     = "text"
	PostTypeImage    = "image"
	PostTypeCarousel = "carousel"
	PostTypeVideo    = "video"

	VisibilityPublic    = "public"
	VisibilityPrivate   = "private"
	VisibilityFollowers = "followers"
)

// StringList 以 JSON 文本落库的字符串数组（标签、媒体地址）
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Post 内容主体，由内容管理服务写入，本服务只读。
// 仅 is_active 且 visibility=public 的记录对搜索可见。
type Post struct {
	ID            string     `gorm:"column:post_id;primaryKey;type:varchar(36)" json:"post_id"`
	UserID        string     `gorm:"type:varchar(36);index:idx_post_user;not null" json:"user_id"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	URL           StringList `gorm:"type:text" json:"url"`
	PostType      string     `gorm:"type:varchar(16);index:idx_post_type;not null" json:"post_type"`
	IsReel        bool       `gorm:"default:false" json:"is_reel"`
	Category      string     `gorm:"type:varchar(64)" json:"category"`
	PostTags      StringList `gorm:"type:text" json:"post_tags"`
	Visibility    string     `gorm:"type:varchar(16);default:public;index:idx_post_visibility" json:"visibility"`
	LikesCount    int        `gorm:"default:0" json:"likes_count"`
	CommentsCount int        `gorm:"default:0" json:"comments_count"`
	ViewsCount    int        `gorm:"default:0" json:"views_count"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SocialGraphClient 读取请求者关注集合的一次性快照。
// 快照与内容查询之间不保证事务一致，允许陈旧。
type SocialGraphClient interface {
	Following(ctx context.Context, userID string) ([]string, error)
}

type followingResponse struct {
	Following []struct {
		TargetUserID string `json:"target_user_id"`
	} `json:"following"`
}

type HTTPSocialGraphClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSocialGraphClient(baseURL string, timeout time.Duration) *HTTPSocialGraphClient {
	return &HTTPSocialGraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPSocialGraphClient) Following(ctx context.Context, userID string) ([]string, error) {
	u := fmt.Sprintf("%s/following/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("social graph returned status %d", resp.StatusCode)
	}
	var body followingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(body.Following))
	for _, f := range body.Following {
		ids = append(ids, f.TargetUserID)
	}
	return ids, nil
}

// CachedSocialGraphClient 给关注集合加短 TTL 的读穿缓存。
// 缓存故障一律忽略，退回源端；这里缓存的是关注快照而非搜索结果。
type CachedSocialGraphClient struct {
	inner SocialGraphClient
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedSocialGraphClient(inner SocialGraphClient, cache *redis.Client, ttl time.Duration) *CachedSocialGraphClient {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedSocialGraphClient{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachedSocialGraphClient) Following(ctx context.Context, userID string) ([]string, error) {
	key := "discovery:following:" + userID
	if data, err := c.cache.Get(ctx, key).Bytes(); err == nil {
		var ids []string
		if uErr := json.Unmarshal(data, &ids); uErr == nil {
			return ids, nil
		}
	}
	ids, err := c.inner.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	if payload, mErr := json.Marshal(ids); mErr == nil {
		_ = c.cache.Set(ctx, key, payload, c.ttl).Err()
	}
	return ids, nil
}

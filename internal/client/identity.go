package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UserProfile 结果条目附带的作者公开档案投影
type UserProfile struct {
	Username      string `json:"username"`
	ProfileImgURL string `json:"profile_img_url"`
}

// UserSummary 用户搜索联想条目
type UserSummary struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	ProfileImgURL string `json:"profile_img_url"`
	IsVerified    bool   `json:"is_verified"`
}

type UserSearchPage struct {
	Users      []UserSummary `json:"users"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// IdentityClient 身份服务：作者档案与用户搜索
type IdentityClient interface {
	GetUser(ctx context.Context, userID string) (*UserProfile, error)
	SearchUsers(ctx context.Context, query string, page, limit int) (*UserSearchPage, error)
}

type HTTPIdentityClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPIdentityClient(baseURL string, timeout time.Duration) *HTTPIdentityClient {
	return &HTTPIdentityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPIdentityClient) GetUser(ctx context.Context, userID string) (*UserProfile, error) {
	u := fmt.Sprintf("%s/user/%s", c.baseURL, url.PathEscape(userID))
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
		return nil, fmt.Errorf("identity returned status %d", resp.StatusCode)
	}
	var body struct {
		User *UserProfile `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.User == nil {
		return nil, fmt.Errorf("identity returned no user for %s", userID)
	}
	return body.User, nil
}

func (c *HTTPIdentityClient) SearchUsers(ctx context.Context, query string, page, limit int) (*UserSearchPage, error) {
	u := fmt.Sprintf("%s/search/users?q=%s&page=%s&limit=%s",
		c.baseURL, url.QueryEscape(query), strconv.Itoa(page), strconv.Itoa(limit))
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
		return nil, fmt.Errorf("identity returned status %d", resp.StatusCode)
	}
	var body UserSearchPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/post-discovery/config"
	"github.com/d60-Lab/post-discovery/internal/client"
	"github.com/d60-Lab/post-discovery/internal/model"
	"github.com/d60-Lab/post-discovery/internal/rank"
	"github.com/d60-Lab/post-discovery/internal/repository"
	"github.com/d60-Lab/post-discovery/pkg/database"
)

type stubGraph struct {
	ids []string
	err error
}

func (g stubGraph) Following(ctx context.Context, userID string) ([]string, error) {
	return g.ids, g.err
}

type stubIdentity struct {
	mu    sync.Mutex
	fail  map[string]bool
	users *client.UserSearchPage
	err   error
}

func (s *stubIdentity) GetUser(ctx context.Context, userID string) (*client.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[userID] {
		return nil, errors.New("identity down")
	}
	return &client.UserProfile{Username: "user-" + userID, ProfileImgURL: "img/" + userID}, nil
}

func (s *stubIdentity) SearchUsers(ctx context.Context, q string, page, limit int) (*client.UserSearchPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.users != nil {
		return s.users, nil
	}
	return &client.UserSearchPage{}, nil
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	return db
}

func seedPost(t *testing.T, db *gorm.DB, owner, title string) *model.Post {
	t.Helper()
	p := &model.Post{
		ID:         uuid.New().String(),
		UserID:     owner,
		Title:      title,
		PostType:   model.PostTypeImage,
		Visibility: model.VisibilityPublic,
		IsActive:   true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func newService(db *gorm.DB, graph client.SocialGraphClient, identity client.IdentityClient) SearchService {
	return NewSearchService(repository.NewPostRepository(db), graph, identity)
}

func resultIDs(res *SearchResult) []string {
	out := make([]string, len(res.Posts))
	for i, p := range res.Posts {
		out[i] = p.ID
	}
	return out
}

func TestPlanPools(t *testing.T) {
	p := planPools(1, 10, 2)
	assert.Equal(t, 2, p.followedQuota) // ceil(10*0.2)
	assert.Equal(t, 8, p.publicTarget)
	assert.Equal(t, 0, p.followedOffset)
	assert.Equal(t, 0, p.publicOffset)

	p = planPools(3, 10, 2)
	assert.Equal(t, 20, p.globalOffset)
	assert.Equal(t, 4, p.followedOffset) // floor(20*0.2)
	assert.Equal(t, 16, p.publicOffset)  // floor(20*0.8)

	p = planPools(2, 7, 1)
	assert.Equal(t, 2, p.followedQuota) // ceil(7*0.2)=2
	assert.Equal(t, 5, p.publicTarget)
	assert.Equal(t, 1, p.followedOffset) // floor(7*0.2)=1
	assert.Equal(t, 5, p.publicOffset)   // floor(7*0.8)=5

	// 无关注：整页给公共池
	p = planPools(1, 10, 0)
	assert.Equal(t, 0, p.followedQuota)
	assert.Equal(t, 10, p.publicTarget)
}

// 规格算例：关注 2 人共 3 条可见内容，语料共 50 条，limit=10：
// 关注配额 2、公共 8，结果恰好 2 条来自关注、8 条公共。
func TestSearchBlendQuota(t *testing.T) {
	db := setupDB(t)
	for i := 0; i < 2; i++ {
		seedPost(t, db, "friend1", fmt.Sprintf("friend1 post %d", i))
	}
	seedPost(t, db, "friend2", "friend2 post")
	for i := 0; i < 47; i++ {
		seedPost(t, db, fmt.Sprintf("stranger%02d", i), fmt.Sprintf("stranger post %d", i))
	}

	svc := newService(db, stubGraph{ids: []string{"friend1", "friend2"}}, &stubIdentity{})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: 1, Limit: 10, Seed: "abc",
	})
	require.NoError(t, err)

	assert.Len(t, res.Posts, 10)
	assert.Equal(t, int64(50), res.Total)
	assert.Equal(t, 5, res.TotalPages)
	assert.Equal(t, 2, res.FollowedUsersCount)
	assert.Equal(t, 2, res.FollowedPostsCount)
	assert.Equal(t, 8, res.PublicPostsCount)
	assert.Equal(t, 20, res.ContentRatio.FollowedPercentage)
	assert.Equal(t, 80, res.ContentRatio.PublicPercentage)

	followed := 0
	for _, p := range res.Posts {
		if p.FromFollowed {
			followed++
			assert.Contains(t, []string{"friend1", "friend2"}, p.UserID)
		}
	}
	assert.Equal(t, 2, followed)
}

// 规格算例：关注的作者没有任何可见内容，缺口全部转给公共池。
func TestSearchFollowedShortfallBackfills(t *testing.T) {
	db := setupDB(t)
	for i := 0; i < 50; i++ {
		seedPost(t, db, fmt.Sprintf("stranger%02d", i), fmt.Sprintf("stranger post %d", i))
	}

	svc := newService(db, stubGraph{ids: []string{"friend1", "friend2"}}, &stubIdentity{})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: 1, Limit: 10, Seed: "abc",
	})
	require.NoError(t, err)

	assert.Len(t, res.Posts, 10)
	assert.Equal(t, 0, res.FollowedPostsCount)
	assert.Equal(t, 10, res.PublicPostsCount)
	for _, p := range res.Posts {
		assert.False(t, p.FromFollowed)
	}
}

func TestSearchNoFollowees(t *testing.T) {
	db := setupDB(t)
	for i := 0; i < 15; i++ {
		seedPost(t, db, fmt.Sprintf("author%02d", i), fmt.Sprintf("post %d", i))
	}

	svc := newService(db, stubGraph{}, &stubIdentity{})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: 1, Limit: 10, Seed: "s",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.FollowedUsersCount)
	assert.Len(t, res.Posts, 10)
	for _, p := range res.Posts {
		assert.False(t, p.FromFollowed)
	}
}

func TestSearchSmallCorpus(t *testing.T) {
	db := setupDB(t)
	a := seedPost(t, db, "a1", "one")
	b := seedPost(t, db, "a2", "two")
	c := seedPost(t, db, "a3", "three")

	svc := newService(db, stubGraph{}, &stubIdentity{})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: 1, Limit: 10, Seed: "s",
	})
	require.NoError(t, err)

	assert.Len(t, res.Posts, 3)
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, resultIDs(res))
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 1, res.TotalPages)
}

func TestSearchDeterministicAcrossCalls(t *testing.T) {
	db := setupDB(t)
	for i := 0; i < 30; i++ {
		seedPost(t, db, fmt.Sprintf("author%02d", i), fmt.Sprintf("post %d", i))
	}
	svc := newService(db, stubGraph{ids: []string{"author00", "author01"}}, &stubIdentity{})

	req := SearchRequest{UserID: "me", Query: "~", Page: 1, Limit: 20, Seed: "fixed"}
	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, resultIDs(first), resultIDs(second))

	req.Seed = "different"
	third, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, resultIDs(first), resultIDs(third))
}

// 最终顺序 = 双池按 rank 序拼接后，对 (seed, page) 做确定性洗牌
func TestSearchAssemblyMatchesShuffleRule(t *testing.T) {
	db := setupDB(t)
	friendPosts := []*model.Post{
		seedPost(t, db, "friend", "friend post 0"),
		seedPost(t, db, "friend", "friend post 1"),
		seedPost(t, db, "friend", "friend post 2"),
	}
	strangerPosts := make([]*model.Post, 0, 20)
	for i := 0; i < 20; i++ {
		strangerPosts = append(strangerPosts, seedPost(t, db, fmt.Sprintf("stranger%02d", i), fmt.Sprintf("stranger post %d", i)))
	}

	const seed, page, limit = "abc", 1, 10
	byRank := func(posts []*model.Post) []string {
		out := make([]string, len(posts))
		for i, p := range posts {
			out[i] = p.ID
		}
		sort.Slice(out, func(i, j int) bool { return rank.Less(seed, out[i], out[j]) })
		return out
	}
	expected := append(byRank(friendPosts)[:2], byRank(strangerPosts)[:8]...)
	rank.Shuffle(expected, seed, page)

	svc := newService(db, stubGraph{ids: []string{"friend"}}, &stubIdentity{})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: page, Limit: limit, Seed: seed,
	})
	require.NoError(t, err)
	assert.Equal(t, expected, resultIDs(res))
}

func TestSearchBrowseSkipsTextFilter(t *testing.T) {
	db := setupDB(t)
	odd := seedPost(t, db, "a1", "zzzqqq-unmatchable")

	svc := newService(db, stubGraph{}, &stubIdentity{})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: 1, Limit: 10, Seed: "s",
	})
	require.NoError(t, err)
	assert.Contains(t, resultIDs(res), odd.ID)
	assert.False(t, res.IsSearch)
	assert.Equal(t, "", res.SearchQuery)
	assert.Equal(t, "all", res.PostType)
}

func TestSearchValidationErrors(t *testing.T) {
	db := setupDB(t)
	svc := newService(db, stubGraph{}, &stubIdentity{})

	_, err := svc.Search(context.Background(), SearchRequest{UserID: "me", Query: "", Page: 1, Limit: 10, Seed: "s"})
	assert.ErrorIs(t, err, repository.ErrEmptyQuery)

	_, err = svc.Search(context.Background(), SearchRequest{UserID: "me", Query: "cat", PostType: "gif", Page: 1, Limit: 10, Seed: "s"})
	assert.ErrorIs(t, err, repository.ErrInvalidPostType)
}

func TestEnrichmentFailureIsIsolated(t *testing.T) {
	db := setupDB(t)
	bad := seedPost(t, db, "broken", "bad author")
	good := seedPost(t, db, "fine", "good author")

	svc := newService(db, stubGraph{}, &stubIdentity{fail: map[string]bool{"broken": true}})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: 1, Limit: 10, Seed: "s",
	})
	require.NoError(t, err)
	require.Len(t, res.Posts, 2)

	for _, p := range res.Posts {
		switch p.ID {
		case bad.ID:
			assert.Nil(t, p.Author)
		case good.ID:
			require.NotNil(t, p.Author)
			assert.Equal(t, "user-fine", p.Author.Username)
		}
	}
}

func TestSocialGraphFailureDegradesToPublic(t *testing.T) {
	db := setupDB(t)
	for i := 0; i < 5; i++ {
		seedPost(t, db, fmt.Sprintf("author%d", i), fmt.Sprintf("post %d", i))
	}

	svc := newService(db, stubGraph{err: errors.New("graph down")}, &stubIdentity{})
	res, err := svc.Search(context.Background(), SearchRequest{
		UserID: "me", Query: "~", Page: 1, Limit: 10, Seed: "s",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FollowedUsersCount)
	assert.Len(t, res.Posts, 5)
	for _, p := range res.Posts {
		assert.False(t, p.FromFollowed)
	}
}

func TestSuggestEmptyQuery(t *testing.T) {
	db := setupDB(t)
	svc := newService(db, stubGraph{}, &stubIdentity{})

	res, err := svc.Suggest(context.Background(), SuggestionRequest{UserID: "me", Query: "  "})
	require.NoError(t, err)
	assert.Empty(t, res.Suggestions)
}

func TestSuggestPosts(t *testing.T) {
	db := setupDB(t)
	seedPost(t, db, "a1", "cat video compilation")
	seedPost(t, db, "a2", "dog tricks")

	svc := newService(db, stubGraph{}, &stubIdentity{})
	res, err := svc.Suggest(context.Background(), SuggestionRequest{UserID: "me", Query: "cat", Limit: 5})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)

	item, ok := res.Suggestions[0].(PostSuggestion)
	require.True(t, ok)
	assert.Equal(t, "post", item.Type)
	assert.Equal(t, "cat video compilation", item.Title)
	require.NotNil(t, item.Author)
	assert.Equal(t, "user-a1", item.Author.Username)
}

func TestSuggestUsers(t *testing.T) {
	db := setupDB(t)
	identity := &stubIdentity{users: &client.UserSearchPage{Users: []client.UserSummary{
		{UserID: "u1", Username: "alice", Name: "Alice", IsVerified: true},
	}}}
	svc := newService(db, stubGraph{}, identity)

	res, err := svc.Suggest(context.Background(), SuggestionRequest{UserID: "me", Query: "ali", PostType: "users", Limit: 5})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)

	item, ok := res.Suggestions[0].(UserSuggestion)
	require.True(t, ok)
	assert.Equal(t, "user", item.Type)
	assert.Equal(t, "alice", item.Username)

	// 身份服务故障时给空联想而不是报错
	svc = newService(db, stubGraph{}, &stubIdentity{err: errors.New("identity down")})
	res, err = svc.Suggest(context.Background(), SuggestionRequest{UserID: "me", Query: "ali", PostType: "users", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Suggestions)
}

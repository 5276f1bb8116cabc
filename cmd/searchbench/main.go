package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/post-discovery/config"
	"github.com/d60-Lab/post-discovery/internal/client"
	"github.com/d60-Lab/post-discovery/internal/model"
	"github.com/d60-Lab/post-discovery/internal/repository"
	"github.com/d60-Lab/post-discovery/internal/service"
	"github.com/d60-Lab/post-discovery/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 { return 0 }
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 { k = 0 }
	if k >= len(xs) { k = len(xs)-1 }
	return xs[k]
}

// staticGraph 固定关注集合，避免基准里引入网络
type staticGraph struct{ ids []string }

func (g staticGraph) Following(ctx context.Context, userID string) ([]string, error) { return g.ids, nil }

// localIdentity 本地档案表，模拟身份服务零延迟返回
type localIdentity struct{}

func (localIdentity) GetUser(ctx context.Context, userID string) (*client.UserProfile, error) {
	return &client.UserProfile{Username: "u" + userID[:8], ProfileImgURL: ""}, nil
}

func (localIdentity) SearchUsers(ctx context.Context, q string, page, limit int) (*client.UserSearchPage, error) {
	return &client.UserSearchPage{}, nil
}

func main() {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	db := must(database.InitDB(cfg))

	// params
	N := 50000      // corpus size
	FOLLOW := 50    // followed authors
	PAGES := 20     // pages to read
	LIMIT := 20     // page size
	if s := os.Getenv("N"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { N = v } }
	if s := os.Getenv("FOLLOW"); s != "" { if v, e := strconv.Atoi(s); e == nil && v >= 0 { FOLLOW = v } }
	if s := os.Getenv("PAGES"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { PAGES = v } }
	if s := os.Getenv("LIMIT"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { LIMIT = v } }

	// seed corpus: authors + mixed-type posts
	authors := make([]string, 500)
	for i := range authors { authors[i] = uuid.New().String() }
	types := []string{model.PostTypeImage, model.PostTypeVideo, model.PostTypeText}
	posts := make([]model.Post, 0, N)
	for i := 0; i < N; i++ {
		pt := types[rand.Intn(len(types))]
		posts = append(posts, model.Post{
			ID:         uuid.New().String(),
			UserID:     authors[rand.Intn(len(authors))],
			Title:      fmt.Sprintf("post %d", i),
			PostType:   pt,
			IsReel:     pt == model.PostTypeVideo && i%3 == 0,
			Visibility: model.VisibilityPublic,
			IsActive:   true,
		})
	}
	must(0, db.CreateInBatches(&posts, 1000).Error)

	requester := uuid.New().String()
	svc := service.NewSearchService(
		repository.NewPostRepository(db),
		staticGraph{ids: authors[:FOLLOW]},
		localIdentity{},
	)

	durations := make([]time.Duration, 0, PAGES)
	for p := 1; p <= PAGES; p++ {
		st := time.Now()
		res := must(svc.Search(context.Background(), service.SearchRequest{
			UserID: requester, Query: "~", Page: p, Limit: LIMIT, Seed: "bench",
		}))
		durations = append(durations, time.Since(st))
		if len(res.Posts) == 0 { break }
	}

	// determinism spot check: page 1 twice must be identical
	a := must(svc.Search(context.Background(), service.SearchRequest{UserID: requester, Query: "~", Page: 1, Limit: LIMIT, Seed: "bench"}))
	b := must(svc.Search(context.Background(), service.SearchRequest{UserID: requester, Query: "~", Page: 1, Limit: LIMIT, Seed: "bench"}))
	stable := len(a.Posts) == len(b.Posts)
	for i := range a.Posts {
		if !stable || a.Posts[i].ID != b.Posts[i].ID { stable = false; break }
	}

	var sum time.Duration
	for _, d := range durations { sum += d }
	fmt.Printf("N=%d FOLLOW=%d PAGES=%d LIMIT=%d\n", N, FOLLOW, PAGES, LIMIT)
	fmt.Printf("Search page latency: avg=%v p95=%v p99=%v\n", sum/time.Duration(len(durations)), pct(durations, 0.95), pct(durations, 0.99))
	fmt.Printf("Page-1 determinism: %v\n", stable)
}

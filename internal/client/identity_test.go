package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPIdentityClientGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/u1", r.URL.Path)
		_, _ = w.Write([]byte(`{"user":{"username":"alice","profile_img_url":"img/alice.png"}}`))
	}))
	defer srv.Close()

	c := NewHTTPIdentityClient(srv.URL, time.Second)
	p, err := c.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "img/alice.png", p.ProfileImgURL)
}

func TestHTTPIdentityClientGetUserErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/missing":
			_, _ = w.Write([]byte(`{"user":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewHTTPIdentityClient(srv.URL, time.Second)

	_, err := c.GetUser(context.Background(), "missing")
	assert.ErrorContains(t, err, "no user")

	_, err = c.GetUser(context.Background(), "other")
	assert.ErrorContains(t, err, "status 404")
}

func TestHTTPIdentityClientSearchUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/users", r.URL.Path)
		assert.Equal(t, "ali", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"users":[{"user_id":"u1","username":"alice","name":"Alice","is_verified":true}],"total":1,"totalPages":1}`))
	}))
	defer srv.Close()

	c := NewHTTPIdentityClient(srv.URL, time.Second)
	page, err := c.SearchUsers(context.Background(), "ali", 1, 5)
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "alice", page.Users[0].Username)
	assert.True(t, page.Users[0].IsVerified)
	assert.Equal(t, int64(1), page.Total)
}

package manychat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFBPageID(t *testing.T) {
	assert.Equal(t, "fb12345", FBPageID("12345"))
	assert.Equal(t, "fb12345", FBPageID("fb12345"))
	assert.Equal(t, "fb", FBPageID(""))
}

func TestCampaignName(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want string
	}{
		{"flow name wins", Post{Name: "raw", Flow: &Flow{Name: "Morning Blast"}}, "Morning Blast"},
		{"falls back to name", Post{Name: "raw", Preview: "prev"}, "raw"},
		{"falls back to preview", Post{Preview: "prev", Namespace: "ns"}, "prev"},
		{"falls back to namespace", Post{Namespace: "ns"}, "ns"},
		{"empty flow name skipped", Post{Flow: &Flow{}, Name: "raw"}, "raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.CampaignName())
		})
	}
}

func TestPostingHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fb999/posting/history", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-03-02", r.URL.Query().Get("to"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"posts": [
				{"post_id": "p1", "status": "sent", "timestamp": 1709312400,
				 "flow": {"name": "Promo"},
				 "stats": {"sent": 100, "delivered": 95, "read": null, "clicked": 12}}
			],
			"total": 1, "offset": 0, "limit": 50
		}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	resp, err := c.PostingHistory(context.Background(), "999",
		WithDateRange("2024-03-01", "2024-03-02"))
	require.NoError(t, err)
	require.Len(t, resp.Posts, 1)

	post := resp.Posts[0]
	assert.Equal(t, "p1", post.ResolvedID())
	assert.Equal(t, "Promo", post.CampaignName())
	assert.Equal(t, "sent", post.Status)

	// null counters survive as nil so downstream fallback logic sees them.
	read, present := post.Stats["read"]
	assert.True(t, present)
	assert.Nil(t, read)
	assert.Equal(t, float64(100), post.Stats["sent"])
}

func TestPostingHistoryErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.PostingHistory(context.Background(), "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestAllPostsPaginates(t *testing.T) {
	pages := map[int][]Post{
		0: {{PostID: "a"}, {PostID: "b"}},
		2: {{PostID: "c"}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		_ = json.NewEncoder(w).Encode(HistoryResponse{
			Posts: pages[offset],
			Total: 3,
		})
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	posts, err := c.AllPosts(context.Background(), "999")
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "c", posts[2].PostID)
}

func TestAllPostsStopsOnEmptyPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(HistoryResponse{})
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	posts, err := c.AllPosts(context.Background(), "999")
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, 1, calls)
}

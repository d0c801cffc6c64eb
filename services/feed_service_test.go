package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple_server/models"
)

func newFeedService(fake *fakeDynamoClient) *FeedService {
	dynamo := &DynamoService{Client: fake}
	users := &UserService{Dynamo: dynamo}
	cache := NewCacheService()
	saved := &SavedPostService{Dynamo: dynamo, Users: users, Cache: cache}
	return &FeedService{Dynamo: dynamo, Users: users, SavedPosts: saved, Cache: cache}
}

func seedPost(t *testing.T, fake *fakeDynamoClient, id, authorID string, createdAt time.Time, likes, comments int) models.Post {
	t.Helper()
	post := models.Post{
		PostID:    id,
		UserID:    authorID,
		Body:      "post " + id,
		Likes:     fakeIDs("like", likes),
		Comments:  fakeIDs("comment", comments),
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
	}
	fake.seed(t, models.PostsTable, post)
	return post
}

func fakeIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return ids
}

func TestRecencyScore(t *testing.T) {
	now := time.Now()
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{30 * time.Minute, 1.0},
		{2 * time.Hour, 0.8},
		{2 * 24 * time.Hour, 0.6},
		{5 * 24 * time.Hour, 0.4},
		{10 * 24 * time.Hour, 0.2},
		{30 * 24 * time.Hour, 0.1},
	}
	for _, tt := range tests {
		got := recencyScore(now.Add(-tt.age), now)
		assert.InDelta(t, tt.want, got, 1e-9, "age %v", tt.age)
	}
}

func TestEngagementScore(t *testing.T) {
	assert.InDelta(t, 0.0, engagementScore(0, 0), 1e-9)
	assert.InDelta(t, 0.3, engagementScore(10, 0), 1e-9)
	assert.InDelta(t, 0.2, engagementScore(0, 5), 1e-9)
	// Saturation caps both components.
	assert.InDelta(t, 1.0, engagementScore(200, 100), 1e-9)
	assert.InDelta(t, 1.0, engagementScore(20, 10), 1e-9)
}

func TestRelationshipScore(t *testing.T) {
	following := map[string]struct{}{"bob": {}}
	assert.InDelta(t, 1.0, relationshipScore("bob", following), 1e-9)
	assert.InDelta(t, 0.2, relationshipScore("carol", following), 1e-9)
	assert.InDelta(t, 0.2, relationshipScore("bob", nil), 1e-9)
}

func TestSavedScore(t *testing.T) {
	now := time.Now()
	assert.InDelta(t, 0.0, savedScore(false, models.SavedPost{}, now), 1e-9)

	neverShown := models.SavedPost{LastShownAt: ""}
	assert.InDelta(t, 1.0, savedScore(true, neverShown, now), 1e-9)

	recentlyShown := models.SavedPost{
		ShownInFeed: true,
		LastShownAt: now.Add(-time.Hour).UTC().Format(time.RFC3339Nano),
	}
	assert.InDelta(t, 0.3, savedScore(true, recentlyShown, now), 1e-9)

	shownLongAgo := models.SavedPost{
		ShownInFeed: true,
		LastShownAt: now.Add(-5 * 24 * time.Hour).UTC().Format(time.RFC3339Nano),
	}
	assert.InDelta(t, 0.7, savedScore(true, shownLongAgo, now), 1e-9)
}

func TestRankCandidates(t *testing.T) {
	now := time.Now()

	t.Run("composite scores", func(t *testing.T) {
		// Fresh post with nothing else going for it.
		fresh := models.Post{
			PostID:    "p-fresh",
			UserID:    "carol",
			CreatedAt: now.Add(-30 * time.Minute).UTC().Format(time.RFC3339Nano),
		}
		// Old post carried by engagement, relationship and resurfacing.
		carried := models.Post{
			PostID:    "p-carried",
			UserID:    "bob",
			Likes:     fakeIDs("like", 25),
			Comments:  fakeIDs("comment", 12),
			CreatedAt: now.Add(-10 * 24 * time.Hour).UTC().Format(time.RFC3339Nano),
		}

		following := map[string]struct{}{"bob": {}}
		saved := map[string]models.SavedPost{
			"p-carried": {UserID: "alice", PostID: "p-carried"},
		}

		ranked := rankCandidates([]models.Post{fresh, carried}, following, saved, now)
		require.Len(t, ranked, 2)
		assert.Equal(t, "p-carried", ranked[0].Post.PostID)
		assert.InDelta(t, 0.68, ranked[0].Score, 1e-9)
		assert.Equal(t, "p-fresh", ranked[1].Post.PostID)
		assert.InDelta(t, 0.44, ranked[1].Score, 1e-9)
	})

	t.Run("ties keep the incoming order", func(t *testing.T) {
		first := models.Post{
			PostID:    "p-1",
			UserID:    "carol",
			CreatedAt: now.Add(-10 * time.Minute).UTC().Format(time.RFC3339Nano),
		}
		second := models.Post{
			PostID:    "p-2",
			UserID:    "dave",
			CreatedAt: now.Add(-20 * time.Minute).UTC().Format(time.RFC3339Nano),
		}

		ranked := rankCandidates([]models.Post{first, second}, nil, nil, now)
		require.Len(t, ranked, 2)
		assert.Equal(t, "p-1", ranked[0].Post.PostID)
		assert.Equal(t, "p-2", ranked[1].Post.PostID)
	})
}

func TestGetFeed(t *testing.T) {
	t.Run("anonymous viewers get strict recency", func(t *testing.T) {
		fake := newFakeDynamoClient()
		svc := newFeedService(fake)
		now := time.Now()
		seedPost(t, fake, "p-old", "bob", now.Add(-2*time.Hour), 50, 20)
		seedPost(t, fake, "p-new", "carol", now.Add(-10*time.Minute), 0, 0)

		page, err := svc.GetFeed(context.Background(), "", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Posts, 2)
		assert.Equal(t, "p-new", page.Posts[0].PostID)
		assert.Equal(t, "p-old", page.Posts[1].PostID)
		assert.False(t, page.IsNext)
		for _, post := range page.Posts {
			assert.False(t, post.HasLiked)
			assert.False(t, post.IsSaved)
		}

		// Anonymous pages bypass the cache.
		_, err = svc.GetFeed(context.Background(), "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, fake.scanCalls[models.PostsTable])
	})

	t.Run("ranking can outweigh recency", func(t *testing.T) {
		fake := newFakeDynamoClient()
		svc := newFeedService(fake)
		now := time.Now()
		fake.seed(t, models.UserProfilesTable, models.UserProfile{
			UserID:    "alice",
			Name:      "Alice",
			Following: []string{"bob"},
		})
		seedPost(t, fake, "p-fresh", "carol", now.Add(-30*time.Minute), 0, 0)
		seedPost(t, fake, "p-carried", "bob", now.Add(-10*24*time.Hour), 25, 12)
		fake.seed(t, models.SavedPostsTable, models.SavedPost{
			UserID:  "alice",
			PostID:  "p-carried",
			SavedAt: now.Add(-24 * time.Hour).UTC().Format(time.RFC3339Nano),
		})

		page, err := svc.GetFeed(context.Background(), "alice", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Posts, 2)
		assert.Equal(t, "p-carried", page.Posts[0].PostID)
		assert.True(t, page.Posts[0].IsSaved)
		assert.Equal(t, 25, page.Posts[0].Likes)
		assert.Equal(t, 12, page.Posts[0].Comments)

		// Surfacing the saved post records the shown marker.
		updates := fake.updatesFor(models.SavedPostsTable)
		require.Len(t, updates, 1)
		userID, _ := attrString(updates[0].Key["userId"])
		postID, _ := attrString(updates[0].Key["postId"])
		assert.Equal(t, "alice", userID)
		assert.Equal(t, "p-carried", postID)
	})

	t.Run("repeat requests inside the window hit the cache", func(t *testing.T) {
		fake := newFakeDynamoClient()
		svc := newFeedService(fake)
		seedPost(t, fake, "p-1", "bob", time.Now().Add(-time.Hour), 3, 1)

		first, err := svc.GetFeed(context.Background(), "alice", 1, 10)
		require.NoError(t, err)
		second, err := svc.GetFeed(context.Background(), "alice", 1, 10)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, fake.scanCalls[models.PostsTable])
	})

	t.Run("paging reports whether more posts remain", func(t *testing.T) {
		fake := newFakeDynamoClient()
		svc := newFeedService(fake)
		now := time.Now()
		for i := 0; i < 5; i++ {
			seedPost(t, fake, fmt.Sprintf("p-%d", i), "bob", now.Add(-time.Duration(i)*time.Minute), 0, 0)
		}

		page, err := svc.GetFeed(context.Background(), "alice", 1, 2)
		require.NoError(t, err)
		assert.Len(t, page.Posts, 2)
		assert.True(t, page.IsNext)

		last, err := svc.GetFeed(context.Background(), "alice", 3, 2)
		require.NoError(t, err)
		assert.Len(t, last.Posts, 1)
		assert.False(t, last.IsNext)
	})
}

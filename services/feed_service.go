package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"ripple_server/apperrors"
	"ripple_server/models"
)

// Algorithm weights for the composite relevance score.
const (
	weightRecency      = 0.4
	weightEngagement   = 0.3
	weightRelationship = 0.2
	weightSaved        = 0.1
)

const (
	// Engagement saturates so outlier posts cannot dominate the feed.
	likeSaturation    = 20
	commentSaturation = 10

	// Candidate pool fetched per ranking pass, relative to the page size.
	candidateMultiplier = 3

	// Short window so the feed stays fresh while absorbing repeat requests.
	feedCacheTTL = 15 * time.Second

	resurfaceCooldown = 3 * 24 * time.Hour
)

// FeedService computes a per-viewer ordering of recent posts from recency,
// engagement, relationship and saved-post-resurfacing signals.
type FeedService struct {
	Dynamo     *DynamoService
	Users      *UserService
	SavedPosts *SavedPostService
	Cache      *CacheService
}

// GetFeed returns one ranked page for the viewer. Results are cached per
// (viewer, page, pageSize) for a short window; cache hits skip scoring and
// its shown-in-feed side effect entirely. An anonymous viewer gets the
// recency-sorted page directly.
func (fs *FeedService) GetFeed(ctx context.Context, viewerID string, page, pageSize int) (*models.FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	if viewerID == "" {
		return fs.recentPage(ctx, page, pageSize)
	}

	cacheKey := fmt.Sprintf("prioritized_posts_%s_page_%d_size_%d", viewerID, page, pageSize)
	value, err := fs.Cache.GetOrSet(cacheKey, feedCacheTTL, func() (interface{}, error) {
		return fs.rankedPage(ctx, viewerID, page, pageSize)
	})
	if err != nil {
		return nil, err
	}
	return value.(*models.FeedPage), nil
}

func (fs *FeedService) rankedPage(ctx context.Context, viewerID string, page, pageSize int) (*models.FeedPage, error) {
	following, err := fs.Users.GetFollowing(ctx, viewerID)
	if err != nil {
		if !apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, err
		}
		following = nil
	}
	followingSet := make(map[string]struct{}, len(following))
	for _, id := range following {
		followingSet[id] = struct{}{}
	}

	all, err := fs.recentPosts(ctx)
	if err != nil {
		return nil, err
	}
	total := len(all)
	skip := (page - 1) * pageSize
	if skip > total {
		skip = total
	}
	end := skip + pageSize*candidateMultiplier
	if end > total {
		end = total
	}
	candidates := all[skip:end]

	savedMap, err := fs.SavedPosts.SavedPostMap(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ranked := rankCandidates(candidates, followingSet, savedMap, time.Now())

	// Every saved post that entered the scored pool counts as surfaced, even
	// when it lands below the page cutoff.
	for _, candidate := range ranked {
		marker, saved := savedMap[candidate.Post.PostID]
		if !saved || marker.ShownInFeed {
			continue
		}
		if err := fs.SavedPosts.MarkShownInFeed(ctx, viewerID, candidate.Post.PostID); err != nil {
			log.Printf("⚠️ Failed to mark saved post %s as shown: %v", candidate.Post.PostID, err)
		}
	}

	if len(ranked) > pageSize {
		ranked = ranked[:pageSize]
	}

	authors := map[string]models.UserSummary{}
	posts := make([]models.FeedPost, 0, len(ranked))
	for _, candidate := range ranked {
		author, ok := authors[candidate.Post.UserID]
		if !ok {
			author = fs.Users.GetSummary(ctx, candidate.Post.UserID)
			authors[candidate.Post.UserID] = author
		}
		_, saved := savedMap[candidate.Post.PostID]
		posts = append(posts, models.FeedPost{
			PostID:    candidate.Post.PostID,
			Body:      candidate.Post.Body,
			CreatedAt: candidate.Post.CreatedAt,
			User:      author,
			Likes:     len(candidate.Post.Likes),
			Comments:  len(candidate.Post.Comments),
			HasLiked:  containsString(candidate.Post.Likes, viewerID),
			IsSaved:   saved,
			LinkURL:   candidate.Post.LinkURL,
		})
	}

	return &models.FeedPage{
		Posts:  posts,
		IsNext: total > skip+pageSize,
	}, nil
}

// recentPage is the anonymous fallback: strict recency order, no
// personalization, no caching, no side effects.
func (fs *FeedService) recentPage(ctx context.Context, page, pageSize int) (*models.FeedPage, error) {
	all, err := fs.recentPosts(ctx)
	if err != nil {
		return nil, err
	}
	total := len(all)
	skip := (page - 1) * pageSize
	if skip > total {
		skip = total
	}
	end := skip + pageSize
	if end > total {
		end = total
	}

	authors := map[string]models.UserSummary{}
	posts := make([]models.FeedPost, 0, end-skip)
	for _, post := range all[skip:end] {
		author, ok := authors[post.UserID]
		if !ok {
			author = fs.Users.GetSummary(ctx, post.UserID)
			authors[post.UserID] = author
		}
		posts = append(posts, models.FeedPost{
			PostID:    post.PostID,
			Body:      post.Body,
			CreatedAt: post.CreatedAt,
			User:      author,
			Likes:     len(post.Likes),
			Comments:  len(post.Comments),
			HasLiked:  false,
			IsSaved:   false,
			LinkURL:   post.LinkURL,
		})
	}

	return &models.FeedPage{
		Posts:  posts,
		IsNext: total > skip+len(posts),
	}, nil
}

// recentPosts returns every post sorted newest first.
func (fs *FeedService) recentPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := fs.Dynamo.ScanAll(ctx, models.PostsTable, &posts); err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return parseTimestamp(posts[i].CreatedAt).After(parseTimestamp(posts[j].CreatedAt))
	})
	return posts, nil
}

type scoredCandidate struct {
	Post  models.Post
	Score float64
}

// rankCandidates scores each candidate and orders them by composite score,
// descending. The sort is stable, so ties keep the incoming recency order.
func rankCandidates(candidates []models.Post, following map[string]struct{}, saved map[string]models.SavedPost, now time.Time) []scoredCandidate {
	ranked := make([]scoredCandidate, 0, len(candidates))
	for _, post := range candidates {
		marker, isSaved := saved[post.PostID]
		score := weightRecency*recencyScore(parseTimestamp(post.CreatedAt), now) +
			weightEngagement*engagementScore(len(post.Likes), len(post.Comments)) +
			weightRelationship*relationshipScore(post.UserID, following) +
			weightSaved*savedScore(isSaved, marker, now)
		ranked = append(ranked, scoredCandidate{Post: post, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// recencyScore is a step function of post age. A step function rather than a
// continuous decay: within a bucket the initial recency sort breaks ties.
func recencyScore(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	switch {
	case age < time.Hour:
		return 1.0
	case age < 24*time.Hour:
		return 0.8
	case age < 3*24*time.Hour:
		return 0.6
	case age < 7*24*time.Hour:
		return 0.4
	case age < 14*24*time.Hour:
		return 0.2
	default:
		return 0.1
	}
}

// engagementScore normalizes likes and comments against their saturation
// points, likes weighted above comments.
func engagementScore(likes, comments int) float64 {
	normalizedLikes := float64(likes) / likeSaturation
	if normalizedLikes > 1 {
		normalizedLikes = 1
	}
	normalizedComments := float64(comments) / commentSaturation
	if normalizedComments > 1 {
		normalizedComments = 1
	}
	return normalizedLikes*0.6 + normalizedComments*0.4
}

// relationshipScore favors followed authors; everyone else keeps a non-zero
// baseline so unfollowed content stays rankable.
func relationshipScore(authorID string, following map[string]struct{}) float64 {
	if _, ok := following[authorID]; ok {
		return 1.0
	}
	return 0.2
}

// savedScore drives resurfacing: highest for saved posts never surfaced,
// suppressed while inside the cooldown, raised again after it.
func savedScore(isSaved bool, marker models.SavedPost, now time.Time) float64 {
	if !isSaved {
		return 0
	}
	if marker.LastShownAt == "" {
		return 1.0
	}
	if now.Sub(parseTimestamp(marker.LastShownAt)) < resurfaceCooldown {
		return 0.3
	}
	return 0.7
}

package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ripple_server/apperrors"
	"ripple_server/models"
)

const savedPostsCacheTTL = 60 * time.Second

// SavedPostService manages saved-post markers and the feed-resurfacing state
// the ranking engine reads from them.
type SavedPostService struct {
	Dynamo *DynamoService
	Users  *UserService
	Cache  *CacheService
}

// SavePost marks a post saved for the user. Saving twice is rejected; the
// (user, post) pair is unique via the lookup before the create.
func (sp *SavedPostService) SavePost(ctx context.Context, userID, postID string) error {
	if postID == "" {
		return apperrors.InvalidArg("post ID is required")
	}

	if _, err := sp.getPost(ctx, postID); err != nil {
		return err
	}

	if _, err := sp.Dynamo.GetItem(ctx, models.SavedPostsTable, savedPostKey(userID, postID)); err == nil {
		return apperrors.AlreadyExists("post already saved")
	} else if err != ErrItemNotFound {
		return fmt.Errorf("failed to check saved post: %w", err)
	}

	marker := models.SavedPost{
		UserID:      userID,
		PostID:      postID,
		SavedAt:     time.Now().UTC().Format(time.RFC3339Nano),
		ShownInFeed: false,
	}
	if err := sp.Dynamo.PutItem(ctx, models.SavedPostsTable, marker); err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}

	log.Printf("🔖 User %s saved post %s", userID, postID)
	return nil
}

// UnsavePost removes the marker. Removing a post that is not saved is a no-op.
func (sp *SavedPostService) UnsavePost(ctx context.Context, userID, postID string) error {
	if postID == "" {
		return apperrors.InvalidArg("post ID is required")
	}
	if err := sp.Dynamo.DeleteItem(ctx, models.SavedPostsTable, savedPostKey(userID, postID)); err != nil {
		return fmt.Errorf("failed to unsave post: %w", err)
	}
	return nil
}

// SavedPostMap returns the user's saved-post markers keyed by post id. The
// ranking engine uses it to compute resurfacing scores.
func (sp *SavedPostService) SavedPostMap(ctx context.Context, userID string) (map[string]models.SavedPost, error) {
	markers, err := sp.markersFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make(map[string]models.SavedPost, len(markers))
	for _, marker := range markers {
		result[marker.PostID] = marker
	}
	return result, nil
}

// MarkShownInFeed records that a saved post surfaced in a ranking pass.
// Concurrent rankings touching the same marker are idempotent in effect.
func (sp *SavedPostService) MarkShownInFeed(ctx context.Context, userID, postID string) error {
	updateExpression := "SET shownInFeed = :true, lastShownAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":true": &types.AttributeValueMemberBOOL{Value: true},
		":now":  &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
	}
	_, err := sp.Dynamo.UpdateItem(ctx, models.SavedPostsTable, updateExpression, savedPostKey(userID, postID), expressionValues, nil)
	if err != nil {
		return fmt.Errorf("failed to mark saved post as shown: %w", err)
	}
	return nil
}

// ListSavedPosts returns a page of the user's saved posts, newest saves
// first. Saves whose post has since been deleted are skipped.
func (sp *SavedPostService) ListSavedPosts(ctx context.Context, userID string, page, pageSize int) (*models.SavedPostsPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	cacheKey := fmt.Sprintf("saved_posts_%s_%d_%d", userID, page, pageSize)
	value, err := sp.Cache.GetOrSet(cacheKey, savedPostsCacheTTL, func() (interface{}, error) {
		return sp.listSavedPosts(ctx, userID, page, pageSize)
	})
	if err != nil {
		return nil, err
	}
	return value.(*models.SavedPostsPage), nil
}

func (sp *SavedPostService) listSavedPosts(ctx context.Context, userID string, page, pageSize int) (*models.SavedPostsPage, error) {
	markers, err := sp.markersFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return parseTimestamp(markers[i].SavedAt).After(parseTimestamp(markers[j].SavedAt))
	})

	skip := (page - 1) * pageSize
	total := len(markers)
	if skip > total {
		skip = total
	}
	end := skip + pageSize
	if end > total {
		end = total
	}

	posts := make([]models.SavedFeedPost, 0, end-skip)
	for _, marker := range markers[skip:end] {
		post, err := sp.getPost(ctx, marker.PostID)
		if err != nil {
			if apperrors.Is(err, apperrors.CodeNotFound) {
				continue // post deleted since it was saved
			}
			return nil, err
		}
		posts = append(posts, models.SavedFeedPost{
			FeedPost: models.FeedPost{
				PostID:    post.PostID,
				Body:      post.Body,
				CreatedAt: post.CreatedAt,
				User:      sp.Users.GetSummary(ctx, post.UserID),
				Likes:     len(post.Likes),
				Comments:  len(post.Comments),
				HasLiked:  containsString(post.Likes, userID),
				IsSaved:   true,
				LinkURL:   post.LinkURL,
			},
			SavedAt: marker.SavedAt,
		})
	}

	return &models.SavedPostsPage{
		Posts:  posts,
		IsNext: total > skip+pageSize,
	}, nil
}

func (sp *SavedPostService) markersFor(ctx context.Context, userID string) ([]models.SavedPost, error) {
	keyCondition := "#userId = :userId"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}
	expressionNames := map[string]string{
		"#userId": "userId",
	}

	items, err := sp.Dynamo.QueryItems(ctx, models.SavedPostsTable, keyCondition, expressionValues, expressionNames, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saved posts: %w", err)
	}

	var markers []models.SavedPost
	if err := attributevalue.UnmarshalListOfMaps(items, &markers); err != nil {
		return nil, fmt.Errorf("failed to parse saved posts: %w", err)
	}
	return markers, nil
}

func (sp *SavedPostService) getPost(ctx context.Context, postID string) (*models.Post, error) {
	item, err := sp.Dynamo.GetItem(ctx, models.PostsTable, map[string]types.AttributeValue{
		"postId": &types.AttributeValueMemberS{Value: postID},
	})
	if err != nil {
		if err == ErrItemNotFound {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}

	var post models.Post
	if err := attributevalue.UnmarshalMap(item, &post); err != nil {
		return nil, fmt.Errorf("failed to parse post: %w", err)
	}
	return &post, nil
}

func savedPostKey(userID, postID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
		"postId": &types.AttributeValueMemberS{Value: postID},
	}
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

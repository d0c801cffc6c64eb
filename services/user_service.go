package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"ripple_server/apperrors"
	"ripple_server/models"
)

// UserService is read-only access to the user directory: profiles for
// display joins and the follow graph for ranking. Profile writes belong to
// the profile system, not here.
type UserService struct {
	Dynamo *DynamoService
}

// GetProfile retrieves a user profile by ID
func (us *UserService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := us.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		if err == ErrItemNotFound {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", userID, err)
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile for %s: %w", userID, err)
	}
	return &profile, nil
}

// GetSummary returns the display fields for a user. Unknown users resolve to
// a bare summary rather than an error so joins never fail a whole response.
func (us *UserService) GetSummary(ctx context.Context, userID string) models.UserSummary {
	profile, err := us.GetProfile(ctx, userID)
	if err != nil {
		return models.UserSummary{UserID: userID}
	}
	return profile.Summary()
}

// GetFollowing returns the set of user ids the given user follows.
func (us *UserService) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	profile, err := us.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.Following, nil
}

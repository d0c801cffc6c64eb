package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"ripple_server/models"
)

// NotificationService is the fire-and-forget notification sink. Callers must
// treat its failures as non-critical: log and move on.
type NotificationService struct {
	Dynamo *DynamoService
}

// Notify stores a notification for a user and flags their profile so the
// client shows the indicator on next fetch.
func (ns *NotificationService) Notify(ctx context.Context, userID string, body string) error {
	notification := models.Notification{
		NotificationID: uuid.New().String(),
		UserID:         userID,
		Body:           body,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := ns.Dynamo.PutItem(ctx, models.NotificationsTable, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	updateExpression := "SET hasNewNotifications = :true"
	expressionValues := map[string]types.AttributeValue{
		":true": &types.AttributeValueMemberBOOL{Value: true},
	}
	if _, err := ns.Dynamo.UpdateItem(ctx, models.UserProfilesTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to flag new notifications for %s: %w", userID, err)
	}
	return nil
}

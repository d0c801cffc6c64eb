package models

type Notification struct {
	NotificationID string `dynamodbav:"notificationId" json:"notificationId"`
	UserID         string `dynamodbav:"userId" json:"userId"`
	Body           string `dynamodbav:"body" json:"body"`
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`
}

// NotificationsTable is the DynamoDB table name for notifications
const NotificationsTable = "Notifications"

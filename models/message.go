package models

type Message struct {
	ConversationID string `dynamodbav:"conversationId" json:"conversationId"`
	MessageID      string `dynamodbav:"messageId" json:"messageId"`
	SenderID       string `dynamodbav:"senderId" json:"senderId"`
	Content        string `dynamodbav:"content" json:"content"`
	IsRead         bool   `dynamodbav:"isRead" json:"isRead"`
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`
}

// MessageWithSender carries the sender's profile summary for display.
type MessageWithSender struct {
	Message
	Sender UserSummary `json:"sender"`
}

// MessagesTable is the DynamoDB table name for conversation messages
const MessagesTable = "Messages"

// MessageIDIndex is the GSI used to look a message up by its id alone
const MessageIDIndex = "messageId-index"

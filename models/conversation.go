package models

type Conversation struct {
	ConversationID string   `dynamodbav:"conversationId" json:"conversationId"`
	Participants   []string `dynamodbav:"participants" json:"participants"`
	LastMessageID  string   `dynamodbav:"lastMessageId,omitempty" json:"lastMessageId,omitempty"`
	IsRead         bool     `dynamodbav:"isRead" json:"isRead"`
	CreatedAt      string   `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt      string   `dynamodbav:"updatedAt" json:"updatedAt"`
}

// HasParticipant reports whether userID is one of the conversation's participants.
func (c Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID, or "" if none.
func (c Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// ConversationSummary is a conversation enriched for the conversation list view.
type ConversationSummary struct {
	Conversation
	ParticipantProfiles []UserSummary `json:"participantProfiles"`
	LastMessage         *Message      `json:"lastMessage,omitempty"`
}

// ConversationDetail is a single conversation with its full message history,
// senders resolved.
type ConversationDetail struct {
	Conversation
	ParticipantProfiles []UserSummary       `json:"participantProfiles"`
	Messages            []MessageWithSender `json:"messages"`
}

// ConversationsTable is the DynamoDB table name for conversations
const ConversationsTable = "Conversations"

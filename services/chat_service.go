package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"ripple_server/apperrors"
	"ripple_server/models"
)

// ChatService owns the durable side of messaging: conversations, messages,
// read state and the lastMessage pointer. Realtime broadcasts happen after
// these operations commit, never instead of them.
type ChatService struct {
	Dynamo        *DynamoService
	Users         *UserService
	Notifications *NotificationService
}

// CreateOrGetConversation returns the conversation between the two users,
// creating it if this is their first message intent. The lookup before the
// create keeps the participant pair logically unique.
func (s *ChatService) CreateOrGetConversation(ctx context.Context, requesterID, participantID string) (*models.ConversationSummary, error) {
	if participantID == "" {
		return nil, apperrors.InvalidArg("participant ID is required")
	}

	existing, err := s.conversationsFor(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if len(existing[i].Participants) == 2 && existing[i].HasParticipant(participantID) {
			return s.summarize(ctx, existing[i])
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	conversation := models.Conversation{
		ConversationID: uuid.New().String(),
		Participants:   []string{requesterID, participantID},
		IsRead:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Dynamo.PutItem(ctx, models.ConversationsTable, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	log.Printf("💬 Created conversation %s between %s and %s", conversation.ConversationID, requesterID, participantID)

	return s.summarize(ctx, conversation)
}

// ListConversations returns the viewer's conversations, most recently
// updated first, with participants resolved and the last message attached.
func (s *ChatService) ListConversations(ctx context.Context, viewerID string) ([]models.ConversationSummary, error) {
	conversations, err := s.conversationsFor(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return parseTimestamp(conversations[i].UpdatedAt).After(parseTimestamp(conversations[j].UpdatedAt))
	})

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for i := range conversations {
		summary, err := s.summarize(ctx, conversations[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// FetchConversation returns a conversation and its messages in chronological
// order. Fetching implies acknowledging: every unread message not sent by the
// viewer is marked read, and so is the conversation.
func (s *ChatService) FetchConversation(ctx context.Context, viewerID, conversationID string) (*models.ConversationDetail, error) {
	conversation, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(viewerID) {
		return nil, apperrors.Forbidden("you are not a participant of this conversation")
	}

	messages, err := s.messagesFor(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return parseTimestamp(messages[i].CreatedAt).Before(parseTimestamp(messages[j].CreatedAt))
	})

	// Side-effecting read: acknowledge everything the peer sent.
	for i := range messages {
		if messages[i].SenderID == viewerID || messages[i].IsRead {
			continue
		}
		if err := s.markMessageRead(ctx, messages[i]); err != nil {
			log.Printf("❌ Failed to mark message %s as read: %v", messages[i].MessageID, err)
			continue
		}
		messages[i].IsRead = true
	}
	if err := s.markConversationRead(ctx, conversationID); err != nil {
		log.Printf("❌ Failed to mark conversation %s as read: %v", conversationID, err)
	} else {
		conversation.IsRead = true
	}

	senders := map[string]models.UserSummary{}
	withSenders := make([]models.MessageWithSender, 0, len(messages))
	for _, message := range messages {
		sender, ok := senders[message.SenderID]
		if !ok {
			sender = s.Users.GetSummary(ctx, message.SenderID)
			senders[message.SenderID] = sender
		}
		withSenders = append(withSenders, models.MessageWithSender{Message: message, Sender: sender})
	}

	return &models.ConversationDetail{
		Conversation:        *conversation,
		ParticipantProfiles: s.summaries(ctx, conversation.Participants),
		Messages:            withSenders,
	}, nil
}

// SendMessage validates, authorizes and persists a message, then updates the
// conversation's lastMessage pointer and notifies the other participant.
// The returned record is durable; broadcasting it is the caller's business.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID, content string) (*models.MessageWithSender, error) {
	if conversationID == "" {
		return nil, apperrors.InvalidArg("conversation ID is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.InvalidArg("message content is required")
	}

	conversation, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(senderID) {
		return nil, apperrors.Forbidden("you are not a participant of this conversation")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	message := models.Message{
		ConversationID: conversationID,
		MessageID:      uuid.New().String(),
		SenderID:       senderID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      now,
	}
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	log.Printf("📩 Stored message %s in conversation %s", message.MessageID, conversationID)

	// New unread activity for the other participant.
	updateExpression := "SET lastMessageId = :lastMessageId, isRead = :false, updatedAt = :updatedAt"
	expressionValues := map[string]types.AttributeValue{
		":lastMessageId": &types.AttributeValueMemberS{Value: message.MessageID},
		":false":         &types.AttributeValueMemberBOOL{Value: false},
		":updatedAt":     &types.AttributeValueMemberS{Value: now},
	}
	if _, err := s.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, conversationKey(conversationID), expressionValues, nil); err != nil {
		// The message itself is durable; the pointer is recomputable metadata.
		log.Printf("❌ Failed to update conversation %s after send: %v", conversationID, err)
	}

	if other := conversation.OtherParticipant(senderID); other != "" {
		if err := s.Notifications.Notify(ctx, other, "You have a new message"); err != nil {
			log.Printf("⚠️ Failed to notify %s about new message: %v", other, err)
		}
	}

	return &models.MessageWithSender{Message: message, Sender: s.Users.GetSummary(ctx, senderID)}, nil
}

// DeleteMessage removes a message. Only the original sender may delete it.
// The conversation's lastMessage pointer is recomputed from the remaining
// messages; a recompute failure leaves the pointer stale, never rolls back
// the delete.
func (s *ChatService) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	if messageID == "" {
		return apperrors.InvalidArg("message ID is required")
	}

	message, err := s.getMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != requesterID {
		return apperrors.Forbidden("only the sender can delete a message")
	}

	if err := s.Dynamo.DeleteItem(ctx, models.MessagesTable, messageKey(message.ConversationID, messageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	log.Printf("🗑 Deleted message %s from conversation %s", messageID, message.ConversationID)

	if err := s.refreshLastMessage(ctx, message.ConversationID); err != nil {
		log.Printf("❌ Failed to recompute lastMessage for conversation %s: %v", message.ConversationID, err)
	}
	return nil
}

// MarkRead marks every unread message from the other participant as read and
// flips the conversation's read flag. Returns how many messages changed.
func (s *ChatService) MarkRead(ctx context.Context, viewerID, conversationID string) (int, error) {
	if conversationID == "" {
		return 0, apperrors.InvalidArg("conversation ID is required")
	}

	conversation, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conversation.HasParticipant(viewerID) {
		return 0, apperrors.Forbidden("you are not a participant of this conversation")
	}

	messages, err := s.messagesFor(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, message := range messages {
		if message.SenderID == viewerID || message.IsRead {
			continue
		}
		if err := s.markMessageRead(ctx, message); err != nil {
			log.Printf("❌ Failed to mark message %s as read: %v", message.MessageID, err)
			continue
		}
		updated++
	}

	if err := s.markConversationRead(ctx, conversationID); err != nil {
		return updated, fmt.Errorf("failed to mark conversation as read: %w", err)
	}
	log.Printf("✅ Marked %d messages as read in conversation %s for %s", updated, conversationID, viewerID)
	return updated, nil
}

func (s *ChatService) getConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ConversationsTable, conversationKey(conversationID))
	if err != nil {
		if err == ErrItemNotFound {
			return nil, apperrors.NotFound("conversation not found")
		}
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	var conversation models.Conversation
	if err := attributevalue.UnmarshalMap(item, &conversation); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}
	return &conversation, nil
}

// conversationsFor scans for every conversation the user participates in.
func (s *ChatService) conversationsFor(ctx context.Context, userID string) ([]models.Conversation, error) {
	filterExpression := "contains(participants, :userId)"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}

	var conversations []models.Conversation
	if err := s.Dynamo.ScanWithFilter(ctx, models.ConversationsTable, filterExpression, expressionValues, nil, &conversations); err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	return conversations, nil
}

func (s *ChatService) messagesFor(ctx context.Context, conversationID string) ([]models.Message, error) {
	keyCondition := "#conversationId = :conversationId"
	expressionValues := map[string]types.AttributeValue{
		":conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
	expressionNames := map[string]string{
		"#conversationId": "conversationId",
	}

	items, err := s.Dynamo.QueryItems(ctx, models.MessagesTable, keyCondition, expressionValues, expressionNames, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	return messages, nil
}

func (s *ChatService) getMessageByID(ctx context.Context, messageID string) (*models.Message, error) {
	keyCondition := "#messageId = :messageId"
	expressionValues := map[string]types.AttributeValue{
		":messageId": &types.AttributeValueMemberS{Value: messageID},
	}
	expressionNames := map[string]string{
		"#messageId": "messageId",
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessagesTable, models.MessageIDIndex, keyCondition, expressionValues, expressionNames, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to look up message: %w", err)
	}
	if len(items) == 0 {
		return nil, apperrors.NotFound("message not found")
	}

	var message models.Message
	if err := attributevalue.UnmarshalMap(items[0], &message); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &message, nil
}

func (s *ChatService) markMessageRead(ctx context.Context, message models.Message) error {
	updateExpression := "SET isRead = :true"
	expressionValues := map[string]types.AttributeValue{
		":true": &types.AttributeValueMemberBOOL{Value: true},
	}
	_, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, messageKey(message.ConversationID, message.MessageID), expressionValues, nil)
	return err
}

func (s *ChatService) markConversationRead(ctx context.Context, conversationID string) error {
	updateExpression := "SET isRead = :true"
	expressionValues := map[string]types.AttributeValue{
		":true": &types.AttributeValueMemberBOOL{Value: true},
	}
	_, err := s.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, conversationKey(conversationID), expressionValues, nil)
	return err
}

// refreshLastMessage points the conversation at its newest remaining message,
// or clears the pointer when none remain.
func (s *ChatService) refreshLastMessage(ctx context.Context, conversationID string) error {
	messages, err := s.messagesFor(ctx, conversationID)
	if err != nil {
		return err
	}

	var newest *models.Message
	for i := range messages {
		if newest == nil || parseTimestamp(messages[i].CreatedAt).After(parseTimestamp(newest.CreatedAt)) {
			newest = &messages[i]
		}
	}

	if newest == nil {
		_, err = s.Dynamo.UpdateItem(ctx, models.ConversationsTable, "REMOVE lastMessageId", conversationKey(conversationID), nil, nil)
		return err
	}

	updateExpression := "SET lastMessageId = :lastMessageId"
	expressionValues := map[string]types.AttributeValue{
		":lastMessageId": &types.AttributeValueMemberS{Value: newest.MessageID},
	}
	_, err = s.Dynamo.UpdateItem(ctx, models.ConversationsTable, updateExpression, conversationKey(conversationID), expressionValues, nil)
	return err
}

func (s *ChatService) summarize(ctx context.Context, conversation models.Conversation) (*models.ConversationSummary, error) {
	summary := models.ConversationSummary{
		Conversation:        conversation,
		ParticipantProfiles: s.summaries(ctx, conversation.Participants),
	}

	if conversation.LastMessageID != "" {
		item, err := s.Dynamo.GetItem(ctx, models.MessagesTable, messageKey(conversation.ConversationID, conversation.LastMessageID))
		if err == nil {
			var lastMessage models.Message
			if err := attributevalue.UnmarshalMap(item, &lastMessage); err == nil {
				summary.LastMessage = &lastMessage
			}
		} else if err != ErrItemNotFound {
			return nil, fmt.Errorf("failed to fetch last message: %w", err)
		}
	}
	return &summary, nil
}

func (s *ChatService) summaries(ctx context.Context, userIDs []string) []models.UserSummary {
	result := make([]models.UserSummary, 0, len(userIDs))
	for _, id := range userIDs {
		result = append(result, s.Users.GetSummary(ctx, id))
	}
	return result
}

func conversationKey(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
	}
}

func messageKey(conversationID, messageID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
		"messageId":      &types.AttributeValueMemberS{Value: messageID},
	}
}

// parseTimestamp parses the RFC3339 timestamps stored on records. Unparseable
// values sort as the zero time.
func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

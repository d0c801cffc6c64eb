package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"ripple_server/apperrors"
	"ripple_server/services"
)

// ChatController struct
type ChatController struct {
	ChatService *services.ChatService
	Identity    *services.IdentityService
}

// NewChatController initializes the chat controller
func NewChatController(chatService *services.ChatService, identity *services.IdentityService) *ChatController {
	return &ChatController{ChatService: chatService, Identity: identity}
}

func (c *ChatController) viewer(r *http.Request) (string, error) {
	viewerID, err := c.Identity.FromRequest(r)
	if err != nil {
		return "", err
	}
	if viewerID == "" {
		return "", apperrors.Unauthenticated("authentication required")
	}
	return viewerID, nil
}

// HandleListConversations - Fetch all conversations the viewer participates in
func (c *ChatController) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	conversations, err := c.ChatService.ListConversations(r.Context(), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// HandleCreateConversation - Create or return the conversation with another user
func (c *ChatController) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		ParticipantID string `json:"participantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	conversation, err := c.ChatService.CreateOrGetConversation(r.Context(), viewerID, request.ParticipantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

// HandleGetConversation - Fetch one conversation with its messages. This is a
// side-effecting read: fetching acknowledges the peer's unread messages.
func (c *ChatController) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	conversationID := mux.Vars(r)["conversationId"]
	log.Printf("🔍 Fetching conversation %s for %s", conversationID, viewerID)

	detail, err := c.ChatService.FetchConversation(r.Context(), viewerID, conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleSendMessage - Persist a new message. The client broadcasts the
// returned record over the socket once this responds.
func (c *ChatController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		ConversationID string `json:"conversationId"`
		Content        string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	message, err := c.ChatService.SendMessage(r.Context(), viewerID, request.ConversationID, request.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// HandleDeleteMessage - Delete one of the viewer's own messages
func (c *ChatController) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	if err := c.ChatService.DeleteMessage(r.Context(), viewerID, request.MessageID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// HandleMarkMessagesAsRead - Mark the peer's messages in a conversation as read
func (c *ChatController) HandleMarkMessagesAsRead(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	updated, err := c.ChatService.MarkRead(r.Context(), viewerID, request.ConversationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"messagesUpdated": updated,
	})
}

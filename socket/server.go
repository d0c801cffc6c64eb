package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"

	"ripple_server/models"
)

// ConversationEvent addresses an ephemeral indicator at a conversation room.
type ConversationEvent struct {
	ConversationID string `json:"conversationId"`
}

// NewSocketServer initializes the Socket.IO server and wires the realtime
// messaging events. The protocol layer performs no authorization and no
// persistence: clients persist through the HTTP API first and emit
// send-message / messages-read only with committed state. Every broadcast
// excludes the originating connection.
func NewSocketServer(registry *RoomRegistry) *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "join-conversation", func(c socketio.Conn, conversationID string) {
		if conversationID == "" {
			log.Println("❌ Invalid conversationId in join-conversation")
			return
		}
		c.Join(conversationID)
		registry.Join(conversationID, c)
		log.Printf("👥 Socket %s joined conversation %s", c.ID(), conversationID)
	})

	server.OnEvent("/", "leave-conversation", func(c socketio.Conn, conversationID string) {
		if conversationID == "" {
			return
		}
		c.Leave(conversationID)
		registry.Leave(conversationID, c.ID())
		log.Printf("👋 Socket %s left conversation %s", c.ID(), conversationID)
	})

	// Typing indicators are ephemeral: nothing is persisted, and expiry is
	// sender-initiated (the client emits stop-typing after an idle window).
	server.OnEvent("/", "typing", func(c socketio.Conn, event ConversationEvent) {
		registry.BroadcastExcept(event.ConversationID, c.ID(), "user-typing", event)
	})

	server.OnEvent("/", "stop-typing", func(c socketio.Conn, event ConversationEvent) {
		registry.BroadcastExcept(event.ConversationID, c.ID(), "user-stop-typing", event)
	})

	// The payload is the durable record returned by the messages API; the
	// broadcast is a notification of committed state, not a command to
	// persist.
	server.OnEvent("/", "send-message", func(c socketio.Conn, message models.MessageWithSender) {
		if message.ConversationID == "" {
			log.Println("❌ Invalid conversationId in send-message")
			return
		}
		registry.BroadcastExcept(message.ConversationID, c.ID(), "new-message", message)
	})

	server.OnEvent("/", "messages-read", func(c socketio.Conn, event ConversationEvent) {
		registry.BroadcastExcept(event.ConversationID, c.ID(), "messages-read", event)
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("❌ Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		registry.RemoveSession(c.ID())
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return server
}

package routes

import (
	"ripple_server/controllers"
	"ripple_server/services"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes sets up routes for conversations and messages
func RegisterChatRoutes(r *mux.Router, chatService *services.ChatService, identity *services.IdentityService) {
	controller := controllers.NewChatController(chatService, identity)

	conversationRouter := r.PathPrefix("/api/conversations").Subrouter()
	conversationRouter.HandleFunc("", controller.HandleListConversations).Methods("GET")
	conversationRouter.HandleFunc("", controller.HandleCreateConversation).Methods("POST")
	conversationRouter.HandleFunc("/{conversationId}", controller.HandleGetConversation).Methods("GET")

	messageRouter := r.PathPrefix("/api/messages").Subrouter()
	messageRouter.HandleFunc("", controller.HandleSendMessage).Methods("POST")
	messageRouter.HandleFunc("", controller.HandleDeleteMessage).Methods("DELETE")
	messageRouter.HandleFunc("/read", controller.HandleMarkMessagesAsRead).Methods("POST")
}

package routes

import (
	"ripple_server/controllers"
	"ripple_server/services"

	"github.com/gorilla/mux"
)

// RegisterSavedPostRoutes sets up routes for saving and listing saved posts
func RegisterSavedPostRoutes(r *mux.Router, savedPosts *services.SavedPostService, identity *services.IdentityService) {
	controller := controllers.NewSavedPostController(savedPosts, identity)

	savedRouter := r.PathPrefix("/api/posts").Subrouter()
	savedRouter.HandleFunc("/save", controller.HandleSavePost).Methods("POST")
	savedRouter.HandleFunc("/unsave", controller.HandleUnsavePost).Methods("POST")
	savedRouter.HandleFunc("/saved", controller.HandleListSavedPosts).Methods("GET")
}

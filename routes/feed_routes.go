package routes

import (
	"ripple_server/controllers"
	"ripple_server/services"

	"github.com/gorilla/mux"
)

// RegisterFeedRoutes sets up the ranked feed endpoint
func RegisterFeedRoutes(r *mux.Router, feedService *services.FeedService, identity *services.IdentityService) {
	controller := controllers.NewFeedController(feedService, identity)

	r.HandleFunc("/api/feed", controller.HandleGetFeed).Methods("GET")
}

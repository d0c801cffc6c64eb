package controllers

import (
	"net/http"
	"strconv"

	"ripple_server/services"
)

// FeedController struct
type FeedController struct {
	FeedService *services.FeedService
	Identity    *services.IdentityService
}

// NewFeedController initializes the feed controller
func NewFeedController(feedService *services.FeedService, identity *services.IdentityService) *FeedController {
	return &FeedController{FeedService: feedService, Identity: identity}
}

// HandleGetFeed - Fetch one ranked feed page. Anonymous requests are allowed
// and fall back to plain recency order.
func (c *FeedController) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.Identity.FromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 10)

	feed, err := c.FeedService.GetFeed(r.Context(), viewerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func queryInt(r *http.Request, name string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

package controllers

import (
	"encoding/json"
	"net/http"

	"ripple_server/apperrors"
	"ripple_server/services"
)

// SavedPostController struct
type SavedPostController struct {
	SavedPosts *services.SavedPostService
	Identity   *services.IdentityService
}

// NewSavedPostController initializes the saved-post controller
func NewSavedPostController(savedPosts *services.SavedPostService, identity *services.IdentityService) *SavedPostController {
	return &SavedPostController{SavedPosts: savedPosts, Identity: identity}
}

func (c *SavedPostController) viewer(r *http.Request) (string, error) {
	viewerID, err := c.Identity.FromRequest(r)
	if err != nil {
		return "", err
	}
	if viewerID == "" {
		return "", apperrors.Unauthenticated("authentication required")
	}
	return viewerID, nil
}

func (c *SavedPostController) decodePostID(r *http.Request) (string, error) {
	var request struct {
		PostID string `json:"postId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return "", apperrors.InvalidArg("invalid request body")
	}
	return request.PostID, nil
}

// HandleSavePost - Save a post for later viewing
func (c *SavedPostController) HandleSavePost(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	postID, err := c.decodePostID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.SavedPosts.SavePost(r.Context(), viewerID, postID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// HandleUnsavePost - Remove a post from the viewer's saved posts
func (c *SavedPostController) HandleUnsavePost(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	postID, err := c.decodePostID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.SavedPosts.UnsavePost(r.Context(), viewerID, postID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// HandleListSavedPosts - Fetch a page of the viewer's saved posts
func (c *SavedPostController) HandleListSavedPosts(w http.ResponseWriter, r *http.Request) {
	viewerID, err := c.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 10)

	saved, err := c.SavedPosts.ListSavedPosts(r.Context(), viewerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

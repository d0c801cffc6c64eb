package models

type Post struct {
	PostID    string   `dynamodbav:"postId" json:"postId"`
	UserID    string   `dynamodbav:"userId" json:"userId"`
	Body      string   `dynamodbav:"body" json:"body"`
	Likes     []string `dynamodbav:"likes" json:"-"`
	Comments  []string `dynamodbav:"comments" json:"-"`
	LinkURL   string   `dynamodbav:"linkUrl,omitempty" json:"linkUrl,omitempty"`
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"`
}

// FeedPost is a post formatted for the feed response.
type FeedPost struct {
	PostID    string      `json:"postId"`
	Body      string      `json:"body"`
	CreatedAt string      `json:"createdAt"`
	User      UserSummary `json:"user"`
	Likes     int         `json:"likes"`
	Comments  int         `json:"comments"`
	HasLiked  bool        `json:"hasLiked"`
	IsSaved   bool        `json:"isSaved"`
	LinkURL   string      `json:"linkUrl,omitempty"`
}

// FeedPage is one page of ranked feed results.
type FeedPage struct {
	Posts  []FeedPost `json:"posts"`
	IsNext bool       `json:"isNext"`
}

// SavedFeedPost is a saved post formatted for the saved-posts listing.
type SavedFeedPost struct {
	FeedPost
	SavedAt string `json:"savedAt"`
}

// SavedPostsPage is one page of a user's saved posts.
type SavedPostsPage struct {
	Posts  []SavedFeedPost `json:"posts"`
	IsNext bool            `json:"isNext"`
}

// PostsTable is the DynamoDB table name for posts (read-only for this service)
const PostsTable = "Posts"

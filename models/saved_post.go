package models

// SavedPost marks a post a user saved for later, plus its feed-resurfacing
// state. Unique per (userId, postId); uniqueness is enforced by a
// lookup-before-create in the service layer.
type SavedPost struct {
	UserID      string `dynamodbav:"userId" json:"userId"`
	PostID      string `dynamodbav:"postId" json:"postId"`
	SavedAt     string `dynamodbav:"savedAt" json:"savedAt"`
	ShownInFeed bool   `dynamodbav:"shownInFeed" json:"shownInFeed"`
	// LastShownAt is empty when the post has never been surfaced in the feed.
	LastShownAt string `dynamodbav:"lastShownAt,omitempty" json:"lastShownAt,omitempty"`
}

// SavedPostsTable is the DynamoDB table name for saved-post markers
const SavedPostsTable = "SavedPosts"

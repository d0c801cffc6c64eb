package models

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID              string   `dynamodbav:"userId" json:"userId"`
	Name                string   `dynamodbav:"name" json:"name"`
	Username            string   `dynamodbav:"username" json:"username"`
	Email               string   `dynamodbav:"email" json:"email"`
	ProfileImage        string   `dynamodbav:"profileImage,omitempty" json:"profileImage,omitempty"`
	Following           []string `dynamodbav:"following" json:"following"`
	Followers           []string `dynamodbav:"followers" json:"followers"`
	HasNewNotifications bool     `dynamodbav:"hasNewNotifications" json:"hasNewNotifications"`
}

// UserSummary is the subset of a profile joined into messages, conversations
// and feed rows for display.
type UserSummary struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Summary trims a profile down to its display fields.
func (u UserProfile) Summary() UserSummary {
	return UserSummary{
		UserID:       u.UserID,
		Name:         u.Name,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
	}
}

// UserProfilesTable is the DynamoDB table name for user profiles (read-only
// for this service, writes belong to the profile system)
const UserProfilesTable = "UserProfiles"

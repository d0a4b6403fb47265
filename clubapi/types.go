package clubapi

// ChannelUser is one participant in a room's user list.
type ChannelUser struct {
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	IsSpeaker      bool   `json:"is_speaker"`
	IsModerator    bool   `json:"is_moderator"`
	IsAskedToSpeak bool   `json:"is_asked_to_speak"`
}

// Channel is a live room snapshot: its identifier plus current participants.
type Channel struct {
	Channel string        `json:"channel"`
	Users   []ChannelUser `json:"users"`
}

// FeedItem wraps a channel entry from the active-rooms feed.
type FeedItem struct {
	Channel Channel `json:"channel"`
}

type feedResponse struct {
	Items []FeedItem `json:"items"`
}

// Profile is the subset of a user profile the service needs.
type Profile struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type profileResponse struct {
	UserProfile Profile `json:"user_profile"`
}

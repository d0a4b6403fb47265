package clubapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Endpoint paths relative to the API base.
const (
	epFeed            = "get_feed_v3"
	epJoinChannel     = "join_channel"
	epLeaveChannel    = "leave_channel"
	epActivePing      = "active_ping"
	epBecomeSpeaker   = "become_speaker"
	epInviteSpeaker   = "invite_speaker"
	epUninviteSpeaker = "uninvite_speaker"
	epMakeModerator   = "make_moderator"
	epFollow          = "follow"
	epGetChannel      = "get_channel"
	epGetProfile      = "get_profile"
)

// GetFeed fetches the current active-rooms feed. Each call is a fresh remote
// query; nothing is cached.
func (c *Client) GetFeed(ctx context.Context) (int, []FeedItem) {
	status, body := c.Call(ctx, epFeed, nil)
	var resp feedResponse
	decode(body, &resp)
	return status, resp.Items
}

// GetChannel fetches a room snapshot including its participant list.
func (c *Client) GetChannel(ctx context.Context, channel string) (int, *Channel) {
	status, body := c.Call(ctx, epGetChannel, map[string]any{"channel": channel})
	var ch Channel
	decode(body, &ch)
	return status, &ch
}

// JoinChannel enters the bot into a room.
func (c *Client) JoinChannel(ctx context.Context, channel string) int {
	status, _ := c.Call(ctx, epJoinChannel, map[string]any{"channel": channel})
	return status
}

// LeaveChannel removes the bot from a room.
func (c *Client) LeaveChannel(ctx context.Context, channel string) int {
	status, _ := c.Call(ctx, epLeaveChannel, map[string]any{"channel": channel})
	return status
}

// ActivePing signals the bot is still present and listening in a room.
func (c *Client) ActivePing(ctx context.Context, channel string) int {
	status, _ := c.Call(ctx, epActivePing, map[string]any{"channel": channel})
	return status
}

// BecomeSpeaker requests (or accepts an invitation for) speaking rights.
func (c *Client) BecomeSpeaker(ctx context.Context, channel string) int {
	status, _ := c.Call(ctx, epBecomeSpeaker, map[string]any{"channel": channel})
	return status
}

// InviteSpeaker invites another participant to speak.
func (c *Client) InviteSpeaker(ctx context.Context, channel string, userID int64) int {
	status, _ := c.Call(ctx, epInviteSpeaker, map[string]any{"channel": channel, "user_id": userID})
	return status
}

// UninviteSpeaker moves a participant back to the audience, clearing any
// speaker or moderator status.
func (c *Client) UninviteSpeaker(ctx context.Context, channel string, userID int64) int {
	status, _ := c.Call(ctx, epUninviteSpeaker, map[string]any{"channel": channel, "user_id": userID})
	return status
}

// MakeModerator grants moderator privileges to a participant.
func (c *Client) MakeModerator(ctx context.Context, channel string, userID int64) int {
	status, _ := c.Call(ctx, epMakeModerator, map[string]any{"channel": channel, "user_id": userID})
	return status
}

// Follow follows a user on behalf of the bot.
func (c *Client) Follow(ctx context.Context, userID int64) int {
	status, _ := c.Call(ctx, epFollow, map[string]any{"user_id": userID})
	return status
}

// GetProfile looks up a user profile by username.
func (c *Client) GetProfile(ctx context.Context, username string) (int, *Profile) {
	status, body := c.Call(ctx, epGetProfile, map[string]any{"username": username})
	var resp profileResponse
	decode(body, &resp)
	return status, &resp.UserProfile
}

// ResolveUserID turns a tracking target into a numeric user id. The target may
// already be numeric, or a handle, or a full profile URL whose last path
// segment is the handle.
func (c *Client) ResolveUserID(ctx context.Context, target string) (int64, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return 0, fmt.Errorf("target empty")
	}
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return id, nil
	}
	username := strings.TrimRight(target, "/")
	if i := strings.LastIndex(username, "/"); i >= 0 {
		username = username[i+1:]
	}
	username = strings.TrimPrefix(username, "@")
	status, profile := c.GetProfile(ctx, username)
	if status != 200 {
		return 0, fmt.Errorf("profile lookup for %q failed with status %d", username, status)
	}
	if profile.UserID == 0 {
		return 0, fmt.Errorf("profile lookup for %q returned no user id", username)
	}
	return profile.UserID, nil
}

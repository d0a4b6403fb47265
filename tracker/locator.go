package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/onnwee/club-tender/clubapi"
	"github.com/onnwee/club-tender/telemetry"
)

// Locator determines which room currently hosts a user by scanning the active
// rooms feed. Every call is a fresh remote query; there is no cache to go
// stale. Feed lookups use the longest rate-limit suspension since the feed is
// the platform's most aggressively throttled endpoint.
type Locator struct {
	Client *clubapi.Client
	Policy clubapi.Policy
}

// Locate returns the identifier of the first feed room containing targetID, or
// "" when the target is not in any room. A non-success status after the policy
// has run its course is returned as an error so the caller can log and move on.
func (l *Locator) Locate(ctx context.Context, targetID int64) (string, error) {
	var items []clubapi.FeedItem
	start := time.Now()
	status, err := l.Policy.Do(ctx, func(ctx context.Context) int {
		st, it := l.Client.GetFeed(ctx)
		if st == 200 {
			items = it
		}
		return st
	})
	telemetry.ObserveFeedLookup(time.Since(start))
	if err != nil {
		return "", err
	}
	if status != 200 {
		return "", fmt.Errorf("feed lookup failed with status %d", status)
	}
	for _, item := range items {
		for _, u := range item.Channel.Users {
			if u.UserID == targetID {
				return item.Channel.Channel, nil
			}
		}
	}
	return "", nil
}

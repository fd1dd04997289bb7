package valueobjects

import (
	"regexp"
	"strings"

	pkgerrors "subscout/pkg/errors"
)

var subredditNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SubredditName is a community name without the r/ prefix
type SubredditName string

// NewSubredditName normalizes and validates a community name. A leading
// "r/" or "/r/" is stripped.
func NewSubredditName(raw string) (SubredditName, error) {
	name := strings.TrimSpace(raw)
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, "r/")

	switch {
	case len(name) < 3:
		return "", pkgerrors.NewValidationError("subreddit name must be at least 3 characters")
	case len(name) > 21:
		return "", pkgerrors.NewValidationError("subreddit name must be at most 21 characters")
	case !subredditNamePattern.MatchString(name):
		return "", pkgerrors.NewValidationError("subreddit name can only contain letters, numbers, and underscores")
	case strings.HasPrefix(name, "_") || strings.HasSuffix(name, "_"):
		return "", pkgerrors.NewValidationError("subreddit name cannot start or end with underscore")
	}

	return SubredditName(name), nil
}

func (n SubredditName) String() string {
	return string(n)
}

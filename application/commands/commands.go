package commands

import (
	"unicode/utf8"

	"subscout/domain/core/valueobjects"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/utils"
)

// AnalyzeAppCommand analyzes an app URL and stores the resulting app
type AnalyzeAppCommand struct {
	UserID string
	URL    string
}

func (c AnalyzeAppCommand) Validate() error {
	if c.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if !utils.IsHTTPURL(c.URL) {
		return pkgerrors.NewValidationError("url must be a valid HTTP/HTTPS URL")
	}
	return nil
}

// DiscoverSubredditsCommand finds and stores communities for an app
type DiscoverSubredditsCommand struct {
	UserID string
	AppID  string
}

func (c DiscoverSubredditsCommand) Validate() error {
	return requireIDs(c.UserID, c.AppID, "app ID")
}

// UpdateSubredditCommand changes the tracked settings of a subreddit. Nil
// fields are left untouched.
type UpdateSubredditCommand struct {
	UserID      string
	SubredditID string
	IsMonitored *bool
	Activity    *valueobjects.ActivityLevel
	MatchScore  *int
}

func (c UpdateSubredditCommand) Validate() error {
	if err := requireIDs(c.UserID, c.SubredditID, "subreddit ID"); err != nil {
		return err
	}
	if c.Activity != nil && !c.Activity.IsValid() {
		return pkgerrors.NewValidationError("activity must be one of: high medium low")
	}
	if c.MatchScore != nil && (*c.MatchScore < 0 || *c.MatchScore > 100) {
		return pkgerrors.NewValidationError("match score must be between 0 and 100")
	}
	return nil
}

// ScanSubredditCommand scans a subreddit and stores the insights found
type ScanSubredditCommand struct {
	UserID      string
	SubredditID string
}

func (c ScanSubredditCommand) Validate() error {
	return requireIDs(c.UserID, c.SubredditID, "subreddit ID")
}

// GeneratePostCommand drafts a first-contact post for a subreddit
type GeneratePostCommand struct {
	UserID      string
	AppID       string
	SubredditID string
}

func (c GeneratePostCommand) Validate() error {
	if err := requireIDs(c.UserID, c.AppID, "app ID"); err != nil {
		return err
	}
	if c.SubredditID == "" {
		return pkgerrors.NewValidationError("subreddit ID is required")
	}
	return nil
}

const (
	MaxPostTitleLength   = 300
	MaxPostContentLength = 40000
)

// UpdatePostCommand edits a drafted post. Nil fields are left untouched.
type UpdatePostCommand struct {
	UserID  string
	PostID  string
	Title   *string
	Content *string
	Status  *valueobjects.PostStatus
}

func (c UpdatePostCommand) Validate() error {
	if err := requireIDs(c.UserID, c.PostID, "post ID"); err != nil {
		return err
	}
	if c.Title != nil {
		if n := utf8.RuneCountInString(*c.Title); n < 1 || n > MaxPostTitleLength {
			return pkgerrors.NewValidationError("title must be between 1 and 300 characters")
		}
	}
	if c.Content != nil {
		if n := utf8.RuneCountInString(*c.Content); n < 1 || n > MaxPostContentLength {
			return pkgerrors.NewValidationError("content must be between 1 and 40000 characters")
		}
	}
	if c.Status != nil && !c.Status.IsValid() {
		return pkgerrors.NewValidationError("status must be one of: draft approved published")
	}
	return nil
}

// AnalyzeTrendsCommand asks the analyzer for trends across an app's pain points
type AnalyzeTrendsCommand struct {
	UserID string
	AppID  string
}

func (c AnalyzeTrendsCommand) Validate() error {
	return requireIDs(c.UserID, c.AppID, "app ID")
}

func requireIDs(userID, id, name string) error {
	if userID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if id == "" {
		return pkgerrors.NewValidationError(name + " is required")
	}
	return nil
}

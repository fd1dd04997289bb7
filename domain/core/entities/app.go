package entities

import (
	"time"

	"github.com/google/uuid"
)

// App is a product submitted for analysis
type App struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	URL            string    `json:"url"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	TargetAudience string    `json:"target_audience"`
	PainPoints     []string  `json:"pain_points"`
	Features       []string  `json:"features"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AppProfile is the LLM-produced description of an app
type AppProfile struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	TargetAudience string   `json:"targetAudience"`
	PainPoints     []string `json:"painPoints"`
	Features       []string `json:"features"`
	Tags           []string `json:"tags"`
}

// NewApp creates an app owned by userID from an analysis profile
func NewApp(userID, url string, profile AppProfile, now time.Time) *App {
	return &App{
		ID:             uuid.New().String(),
		UserID:         userID,
		URL:            url,
		Name:           profile.Name,
		Description:    profile.Description,
		TargetAudience: profile.TargetAudience,
		PainPoints:     nonNil(profile.PainPoints),
		Features:       nonNil(profile.Features),
		Tags:           nonNil(profile.Tags),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (a *App) IsOwnedBy(userID string) bool {
	return a.UserID == userID
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

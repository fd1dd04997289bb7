package entities

import (
	"time"

	"github.com/google/uuid"

	"subscout/domain/core/valueobjects"
)

// Activity is an entry in the user's activity feed
type Activity struct {
	ID          string                    `json:"id"`
	UserID      string                    `json:"user_id"`
	Type        valueobjects.ActivityType `json:"type"`
	Description string                    `json:"description"`
	Metadata    map[string]interface{}    `json:"metadata"`
	CreatedAt   time.Time                 `json:"created_at"`
}

func NewActivity(userID string, t valueobjects.ActivityType, description string, metadata map[string]interface{}, now time.Time) *Activity {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &Activity{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        t,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   now,
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// SupabaseVerifier asks the Supabase auth server for the token's user. It
// serves deployments that do not hold the project JWT secret.
type SupabaseVerifier struct {
	client *supabase.Client
}

func NewSupabaseVerifier(url, key string) (*SupabaseVerifier, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase URL and key are required")
	}
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create Supabase client: %w", err)
	}
	return &SupabaseVerifier{client: client}, nil
}

// Verify does not take the context into the request; the client offers no
// context-aware variant of GetUser.
func (s *SupabaseVerifier) Verify(_ context.Context, token string) (*UserContext, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return userFromMetadata(user.ID.String(), user.Email, user.UserMetadata), nil
}

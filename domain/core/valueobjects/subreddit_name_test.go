package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "subscout/pkg/errors"
)

func TestNewSubredditName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SubredditName
		wantErr bool
	}{
		{name: "plain", input: "startups", want: "startups"},
		{name: "prefixed", input: "r/SaaS", want: "SaaS"},
		{name: "slash prefixed", input: "/r/indiehackers", want: "indiehackers"},
		{name: "too short", input: "ab", wantErr: true},
		{name: "too long", input: "abcdefghijklmnopqrstuv", wantErr: true},
		{name: "bad chars", input: "side-projects", wantErr: true},
		{name: "leading underscore", input: "_hidden", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSubredditName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostStatus_IsValid(t *testing.T) {
	assert.True(t, PostApproved.IsValid())
	assert.False(t, PostStatus("archived").IsValid())
}

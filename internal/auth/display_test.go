package auth

import (
	"errors"
	"testing"

	"github.com/brizzai/auto-eda/internal/auth/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDisplayIdentity(t *testing.T) {
	tests := []struct {
		name string
		rec  *models.Identity
		want DisplayIdentity
	}{
		{
			name: "name falls back to email local part",
			rec:  &models.Identity{Email: "jane.doe@example.com"},
			want: DisplayIdentity{
				Email:       "jane.doe@example.com",
				Name:        "jane.doe",
				Initial:     "J",
				AvatarURL:   "/avatar/J.svg",
				Placeholder: true,
			},
		},
		{
			name: "placeholder keyed on uppercased initial of the name",
			rec:  &models.Identity{Email: "j@example.com", Name: "Jane"},
			want: DisplayIdentity{
				Email:       "j@example.com",
				Name:        "Jane",
				Initial:     "J",
				AvatarURL:   "/avatar/J.svg",
				Placeholder: true,
			},
		},
		{
			name: "picture is kept",
			rec:  &models.Identity{Email: "bob@example.com", Name: "bob", Picture: "https://lh3.googleusercontent.com/a/x"},
			want: DisplayIdentity{
				Email:     "bob@example.com",
				Name:      "bob",
				Initial:   "B",
				AvatarURL: "https://lh3.googleusercontent.com/a/x",
			},
		},
		{
			name: "non ascii initial",
			rec:  &models.Identity{Email: "e@example.com", Name: "élodie"},
			want: DisplayIdentity{
				Email:       "e@example.com",
				Name:        "élodie",
				Initial:     "É",
				AvatarURL:   "/avatar/%C3%89.svg",
				Placeholder: true,
			},
		},
		{
			name: "punctuation initial falls back to question mark",
			rec:  &models.Identity{Email: "x@example.com", Name: "/slash"},
			want: DisplayIdentity{
				Email:       "x@example.com",
				Name:        "/slash",
				Initial:     "?",
				AvatarURL:   "/avatar/%3F.svg",
				Placeholder: true,
			},
		},
		{
			name: "digit initial is kept",
			rec:  &models.Identity{Email: "7up@example.com"},
			want: DisplayIdentity{
				Email:       "7up@example.com",
				Name:        "7up",
				Initial:     "7",
				AvatarURL:   "/avatar/7.svg",
				Placeholder: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDisplayIdentity(tt.rec)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ResolveDisplayIdentity() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveDisplayIdentity_MissingEmail(t *testing.T) {
	_, err := ResolveDisplayIdentity(&models.Identity{Name: "Jane"})
	assert.True(t, errors.Is(err, ErrIdentityIncomplete))

	_, err = ResolveDisplayIdentity(nil)
	assert.ErrorIs(t, err, ErrIdentityIncomplete)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(ErrMissingToken), "No access token")
	assert.Contains(t, UserMessage(&ExchangeError{Endpoint: "token", StatusCode: 400}), "exchanging code")
	assert.Contains(t, UserMessage(ErrStateMismatch), "sign in again")
	assert.Contains(t, UserMessage(errors.New("other")), "try again")
}

package auth

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/brizzai/auto-eda/internal/auth/models"
)

// AvatarPathPrefix is where the web layer serves placeholder avatars
const AvatarPathPrefix = "/avatar/"

// DisplayIdentity is what the pages show for the signed-in user
type DisplayIdentity struct {
	Email       string
	Name        string
	AvatarURL   string
	Initial     string
	Placeholder bool
}

// ResolveDisplayIdentity applies the display fallbacks: the name falls back to
// the local part of the email, the avatar to a placeholder keyed on the
// uppercased first character of the name.
func ResolveDisplayIdentity(rec *models.Identity) (DisplayIdentity, error) {
	if rec == nil || strings.TrimSpace(rec.Email) == "" {
		return DisplayIdentity{}, ErrIdentityIncomplete
	}

	email := strings.TrimSpace(rec.Email)
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at >= 0 {
			name = email[:at]
		}
	}

	out := DisplayIdentity{
		Email:   email,
		Name:    name,
		Initial: initialOf(name),
	}
	if picture := strings.TrimSpace(rec.Picture); picture != "" {
		out.AvatarURL = picture
	} else {
		out.AvatarURL = PlaceholderAvatarURL(out.Initial)
		out.Placeholder = true
	}
	return out, nil
}

// PlaceholderAvatarURL returns the generated avatar path for initial
func PlaceholderAvatarURL(initial string) string {
	return AvatarPathPrefix + url.PathEscape(initial) + ".svg"
}

// initialOf returns the uppercased first rune of name, or "?" when that rune
// is not a letter or digit
func initialOf(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

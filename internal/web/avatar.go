package web

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
)

var avatarColors = []string{
	"#1a73e8", "#d93025", "#188038", "#e37400",
	"#9334e6", "#007b83", "#c5221f", "#5f6368",
}

// handleAvatar draws the placeholder avatar for an initial
func handleAvatar(w http.ResponseWriter, r *http.Request) {
	initial, err := url.PathUnescape(chi.URLParam(r, "initial"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ch, size := utf8.DecodeRuneInString(initial)
	if ch == utf8.RuneError || size != len(initial) {
		http.NotFound(w, r)
		return
	}
	ch = unicode.ToUpper(ch)

	color := avatarColors[int(ch)%len(avatarColors)]
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="80" height="80" viewBox="0 0 80 80">`+
		`<circle cx="40" cy="40" r="40" fill="%s"/>`+
		`<text x="50%%" y="50%%" dy=".35em" text-anchor="middle" font-family="sans-serif" font-size="36" fill="#fff">%s</text>`+
		`</svg>`, color, html.EscapeString(string(ch)))

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(svg))
}

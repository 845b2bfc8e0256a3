package pipeline

import (
	"strings"

	"github.com/iconidentify/instafetch/internal/domain"
)

// ExtractReference derives the post reference from a raw URL. The
// shortcode is the second-to-last path segment once trailing slashes
// are stripped. No scheme or host validation happens here: anything
// that looks like a path is accepted, and bogus references surface as
// provider not-found failures instead.
func ExtractReference(rawURL string) (domain.PostReference, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return domain.PostReference{}, domain.ErrMalformedURL
	}
	return domain.PostReference{Shortcode: domain.Shortcode(parts[len(parts)-2])}, nil
}

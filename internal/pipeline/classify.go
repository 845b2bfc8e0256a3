package pipeline

import (
	"errors"
	"strings"

	"github.com/iconidentify/instafetch/internal/domain"
	"github.com/iconidentify/instafetch/internal/instagram"
)

// Category is the user-facing failure category a raw error maps to.
type Category int

const (
	CategoryNotFound Category = iota
	CategoryPrivate
	CategoryNoVideo
	CategoryRateLimited
	CategoryOversize
	CategoryDownloadFailed
	CategoryUnexpected
)

func (c Category) String() string {
	switch c {
	case CategoryNotFound:
		return "not_found"
	case CategoryPrivate:
		return "private"
	case CategoryNoVideo:
		return "no_video"
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryOversize:
		return "oversize"
	case CategoryDownloadFailed:
		return "download_failed"
	default:
		return "unexpected"
	}
}

// Fixed user-facing messages, one per category.
const (
	msgNotFound    = "❌ Post not found. Make sure the link is valid."
	msgPrivate     = "❌ This post is private. Only public posts can be downloaded."
	msgNoVideo     = "This post does not contain a video."
	msgRateLimited = "⏳ Instagram is rate-limiting us right now. Please try again in a few minutes."
	msgOversize    = "❌ The video is too large to send over Telegram."
	msgDownload    = "❌ Error: Could not download the video. Make sure:\n" +
		"1. The link is valid\n" +
		"2. The post is public\n" +
		"3. The post contains a video"
	msgUnexpected = "❌ Sorry, something went wrong while processing your request."
)

// Reply is a classified failure ready to send back to the requester.
type Reply struct {
	Category Category
	Message  string
}

// Classify maps any pipeline failure onto exactly one user-facing reply.
// Sentinel errors are matched first; when only an opaque error is
// available the textual cause is checked for known substring markers, a
// best-effort layer kept because the upstream provider does not expose
// structured errors for every failure. Recognized provider failures fall
// back to the generic download message, anything else to the apology.
func Classify(err error) Reply {
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		return Reply{CategoryNotFound, msgNotFound}
	case errors.Is(err, domain.ErrPrivatePost):
		return Reply{CategoryPrivate, msgPrivate}
	case errors.Is(err, domain.ErrNoVideo):
		return Reply{CategoryNoVideo, msgNoVideo}
	case errors.Is(err, domain.ErrRateLimited):
		return Reply{CategoryRateLimited, msgRateLimited}
	case errors.Is(err, domain.ErrOversize):
		return Reply{CategoryOversize, msgOversize}
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "not found"):
		return Reply{CategoryNotFound, msgNotFound}
	case strings.Contains(text, "private"):
		return Reply{CategoryPrivate, msgPrivate}
	case strings.Contains(text, "rate-limited"):
		return Reply{CategoryRateLimited, msgRateLimited}
	}

	var provErr *instagram.ProviderError
	if errors.As(err, &provErr) ||
		errors.Is(err, domain.ErrDownloadFailed) ||
		errors.Is(err, domain.ErrNoMediaFound) {
		return Reply{CategoryDownloadFailed, msgDownload}
	}

	return Reply{CategoryUnexpected, msgUnexpected}
}

// Retryable reports whether a failure should trigger another retrieval
// attempt. Only rate limiting is retried; not-found, private, and
// no-video outcomes are terminal.
func Retryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

package domain

import "errors"

// Domain errors.
var (
	// ErrMalformedURL is returned when a post URL has too few path segments.
	ErrMalformedURL = errors.New("malformed post URL")

	// ErrPostNotFound is returned when the referenced post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrPrivatePost is returned when the post is not publicly accessible.
	ErrPrivatePost = errors.New("post is private")

	// ErrNoVideo is returned when the post has no video content.
	ErrNoVideo = errors.New("post has no video")

	// ErrRateLimited is returned when the provider is rate-limiting requests.
	ErrRateLimited = errors.New("rate-limited by provider")

	// ErrOversize is returned when the transport rejects the video for size.
	ErrOversize = errors.New("video exceeds transport size limit")

	// ErrNoMediaFound is returned when no video file is staged in the workspace.
	ErrNoMediaFound = errors.New("no media file found in workspace")

	// ErrDownloadFailed is returned when the video download fails.
	ErrDownloadFailed = errors.New("video download failed")
)

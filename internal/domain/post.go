package domain

import "time"

// Shortcode identifies a single post within its URL.
type Shortcode string

func (s Shortcode) String() string { return string(s) }

// Request is one inbound download request. It is never persisted.
type Request struct {
	RequesterID int64
	RawURL      string
	ReceivedAt  time.Time
}

// PostReference is the canonical identifier extracted from a request URL.
type PostReference struct {
	Shortcode Shortcode
}

// PostMetadata describes a resolved post.
type PostMetadata struct {
	Shortcode Shortcode
	IsVideo   bool
	VideoURL  string
	Owner     string
	Caption   string
}

// MediaArtifact is the single staged media file produced by a retrieval.
type MediaArtifact struct {
	Path      string
	SizeBytes int64
}

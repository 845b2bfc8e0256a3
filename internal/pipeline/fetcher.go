package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/iconidentify/instafetch/internal/config"
	"github.com/iconidentify/instafetch/internal/domain"
)

// Provider resolves posts and downloads their media from the upstream
// content service.
type Provider interface {
	ResolvePost(ctx context.Context, shortcode domain.Shortcode) (*domain.PostMetadata, error)
	DownloadPost(ctx context.Context, meta *domain.PostMetadata, dir string) error
}

// ProviderPool hands out a provider client per retrieval attempt. Each
// Pick may present a different outbound identity.
type ProviderPool interface {
	Pick() Provider
}

// Fetcher is the retrieval engine: it drives bounded retrieval attempts
// against the provider with identity rotation and linear backoff on
// rate limiting.
type Fetcher struct {
	pool   ProviderPool
	cfg    config.DownloadConfig
	logger *slog.Logger
}

// NewFetcher creates a retrieval engine.
func NewFetcher(pool ProviderPool, cfg config.DownloadConfig, logger *slog.Logger) *Fetcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Fetcher{
		pool:   pool,
		cfg:    cfg,
		logger: logger,
	}
}

// Fetch stages the referenced post's video in the workspace and returns
// the selected artifact. Rate-limited attempts are retried up to
// MaxRetries with a backoff of BackoffStep * attempt; every other
// failure propagates immediately. Not-found, private, and no-video
// outcomes are terminal by definition.
func (f *Fetcher) Fetch(ctx context.Context, ref domain.PostReference, workspace string) (*domain.MediaArtifact, error) {
	var lastErr error

	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		err := f.fetchOnce(ctx, ref, workspace, attempt)
		if err == nil {
			return SelectArtifact(workspace)
		}

		lastErr = err

		if !Retryable(err) || attempt == f.cfg.MaxRetries {
			break
		}

		backoff := f.cfg.BackoffStep * time.Duration(attempt)
		f.logger.Warn("rate-limited, backing off",
			"shortcode", ref.Shortcode,
			"attempt", attempt,
			"backoff", backoff,
		)
		if err := sleepCtx(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, ref domain.PostReference, workspace string, attempt int) error {
	client := f.pool.Pick()

	// Settle briefly after rotating identity so successive attempts
	// don't present as a burst to the provider.
	if err := sleepCtx(ctx, f.cfg.RotationPause); err != nil {
		return err
	}

	meta, err := client.ResolvePost(ctx, ref.Shortcode)
	if err != nil {
		return err
	}

	if !meta.IsVideo {
		return domain.ErrNoVideo
	}

	f.logger.Info("post resolved",
		"shortcode", ref.Shortcode,
		"owner", meta.Owner,
		"attempt", attempt,
	)

	if err := sleepCtx(ctx, f.cfg.CourtesyDelay); err != nil {
		return err
	}

	return client.DownloadPost(ctx, meta, workspace)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

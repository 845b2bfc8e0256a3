package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/iconidentify/instafetch/internal/domain"
)

// Messenger sends replies back to the requesting chat.
type Messenger interface {
	// ReplyText sends a plain text message.
	ReplyText(ctx context.Context, chatID int64, text string) error

	// ReplyVideo sends the file at path as a video attachment. A
	// transport rejection for payload size must surface as
	// domain.ErrOversize.
	ReplyVideo(ctx context.Context, chatID int64, path, caption string) error
}

const (
	msgProcessing    = "⏳ Processing your request..."
	captionDelivered = "✅ Here's your video!"
)

// Pipeline runs one download request end to end: parse, stage, fetch,
// deliver, clean up. Every failure is classified into a user-facing
// text reply; nothing escapes to the caller.
type Pipeline struct {
	workspaces *WorkspaceManager
	fetcher    *Fetcher
	messenger  Messenger
	logger     *slog.Logger

	// Requests from the same requester share one workspace directory,
	// so they are serialized here to keep one request's cleanup from
	// racing another's artifact selection.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	completed atomic.Int64
	failed    atomic.Int64
}

// New creates a pipeline.
func New(workspaces *WorkspaceManager, fetcher *Fetcher, messenger Messenger, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		workspaces: workspaces,
		fetcher:    fetcher,
		messenger:  messenger,
		logger:     logger,
		locks:      make(map[int64]*sync.Mutex),
	}
}

// Handle processes one inbound request. It always terminates with
// either a delivered video or a classified text reply.
func (p *Pipeline) Handle(ctx context.Context, req domain.Request) {
	logger := p.logger.With(
		"request_id", uuid.NewString(),
		"requester_id", req.RequesterID,
	)

	lock := p.requesterLock(req.RequesterID)
	lock.Lock()
	defer lock.Unlock()

	logger.Info("processing request", "url", req.RawURL)

	if err := p.messenger.ReplyText(ctx, req.RequesterID, msgProcessing); err != nil {
		logger.Warn("failed to send acknowledgement", "error", err)
	}

	if err := p.run(ctx, req, logger); err != nil {
		p.failed.Add(1)
		reply := Classify(err)
		logger.Error("request failed",
			"category", reply.Category.String(),
			"error", err,
		)
		if sendErr := p.messenger.ReplyText(ctx, req.RequesterID, reply.Message); sendErr != nil {
			logger.Error("failed to send failure reply", "error", sendErr)
		}
		return
	}

	p.completed.Add(1)
	logger.Info("request completed")
}

func (p *Pipeline) run(ctx context.Context, req domain.Request, logger *slog.Logger) error {
	ref, err := ExtractReference(req.RawURL)
	if err != nil {
		return err
	}

	workspace, err := p.workspaces.Acquire(req.RequesterID)
	if err != nil {
		return err
	}
	// Cleanup runs on every exit path, classified or not.
	defer p.workspaces.Release(workspace)

	artifact, err := p.fetcher.Fetch(ctx, ref, workspace)
	if err != nil {
		return err
	}

	return p.deliver(ctx, req.RequesterID, artifact, logger)
}

// deliver sends the artifact and removes it immediately afterwards,
// whether or not the send succeeded.
func (p *Pipeline) deliver(ctx context.Context, chatID int64, artifact *domain.MediaArtifact, logger *slog.Logger) error {
	err := p.messenger.ReplyVideo(ctx, chatID, artifact.Path, captionDelivered)

	if rmErr := os.Remove(artifact.Path); rmErr != nil && !os.IsNotExist(rmErr) {
		logger.Error("failed to remove delivered artifact", "path", artifact.Path, "error", rmErr)
	}

	return err
}

func (p *Pipeline) requesterLock(requesterID int64) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[requesterID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[requesterID] = lock
	}
	return lock
}

// Stats reports lifetime request counters for the operational endpoint.
func (p *Pipeline) Stats() (completed, failed int64) {
	return p.completed.Load(), p.failed.Load()
}

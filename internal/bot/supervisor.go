package bot

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/instafetch/internal/config"
)

// State is the supervisor's position in its lifecycle.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateRetrying
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateRetrying:
		return "retrying"
	default:
		return "fatal"
	}
}

// Session is one connect-and-receive run. It returns nil on clean
// shutdown and the transport error otherwise.
type Session func(ctx context.Context) error

// Supervisor keeps the receive session alive indefinitely. A conflict
// (another instance holds the session) or a network failure puts it in
// Retrying with a fixed delay; any other failure is Fatal. The process
// is meant to run until stopped, so the retry loop is unbounded.
type Supervisor struct {
	session Session
	cfg     config.BotConfig
	logger  *slog.Logger
	state   State
}

// NewSupervisor creates a supervisor over the given session.
func NewSupervisor(session Session, cfg config.BotConfig, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		session: session,
		cfg:     cfg,
		logger:  logger,
		state:   StateStarting,
	}
}

// State returns the supervisor's current state.
func (s *Supervisor) State() State { return s.state }

// Run drives the session until ctx is canceled or a fatal error occurs.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		s.state = StateStarting
		s.logger.Info("starting receive session")

		s.state = StateRunning
		err := s.session(ctx)
		if err == nil {
			s.logger.Info("receive session stopped cleanly")
			return nil
		}

		delay, retryable := s.classify(err)
		if !retryable {
			s.state = StateFatal
			s.logger.Error("fatal session error", "error", err)
			return err
		}

		s.state = StateRetrying
		s.logger.Warn("session failed, retrying",
			"error", err,
			"delay", delay,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// classify decides whether a session error is retryable and with what
// delay. Conflicts wait longer to give the competing instance time to
// release the session.
func (s *Supervisor) classify(err error) (time.Duration, bool) {
	if isConflictError(err) {
		return s.cfg.ConflictDelay, true
	}
	if isNetworkError(err) {
		return s.cfg.NetworkDelay, true
	}
	return 0, false
}

// isConflictError reports whether another instance holds the receive
// session (HTTP 409 from the platform).
func isConflictError(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 409
}

// isNetworkError reports whether the failure happened at the transport
// layer rather than inside the platform API.
func isNetworkError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

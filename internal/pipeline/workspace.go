package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// WorkspaceManager allocates and sweeps per-requester staging
// directories. One directory per requester, created on demand, reused
// across requests, emptied on release but never deleted.
type WorkspaceManager struct {
	basePath string
	logger   *slog.Logger
}

// NewWorkspaceManager creates a workspace manager rooted at basePath.
func NewWorkspaceManager(basePath string, logger *slog.Logger) *WorkspaceManager {
	return &WorkspaceManager{
		basePath: basePath,
		logger:   logger,
	}
}

// Acquire returns the requester's staging directory, creating it if
// absent. A pre-existing directory is not an error.
func (m *WorkspaceManager) Acquire(requesterID int64) (string, error) {
	dir := filepath.Join(m.basePath, fmt.Sprintf("downloads_%d", requesterID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

// Release removes every file currently inside the workspace, leaving
// the directory in place for reuse. Individual deletion failures are
// logged and skipped; Release itself never fails and may be called
// repeatedly.
func (m *WorkspaceManager) Release(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Error("failed to list workspace", "dir", dir, "error", err)
		}
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			m.logger.Error("failed to remove staged file", "path", path, "error", err)
		}
	}
}

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iconidentify/instafetch/internal/domain"
)

// videoExtension is the media container the retrieval engine stages.
const videoExtension = ".mp4"

// SelectArtifact scans the workspace's direct contents for the staged
// video file. The first match in directory order wins; with a single
// post staged per request there is at most one candidate, so the order
// dependence is harmless. Sidecar files are ignored here and swept by
// workspace release afterwards.
func SelectArtifact(dir string) (*domain.MediaArtifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), videoExtension) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat artifact: %w", err)
		}
		return &domain.MediaArtifact{Path: path, SizeBytes: info.Size()}, nil
	}

	return nil, domain.ErrNoMediaFound
}

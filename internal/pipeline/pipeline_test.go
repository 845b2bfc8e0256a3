package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iconidentify/instafetch/internal/domain"
)

// fakeMessenger records outbound replies. videoErr lets tests simulate
// transport rejections on media sends.
type fakeMessenger struct {
	mu       sync.Mutex
	texts    []string
	videos   []string // artifact paths as sent
	captions []string
	videoErr error
}

func (m *fakeMessenger) ReplyText(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *fakeMessenger) ReplyVideo(_ context.Context, _ int64, path, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos = append(m.videos, path)
	m.captions = append(m.captions, caption)
	return m.videoErr
}

func (m *fakeMessenger) lastText(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		t.Fatal("no text replies sent")
	}
	return m.texts[len(m.texts)-1]
}

func newTestPipeline(t *testing.T, provider *fakeProvider, messenger *fakeMessenger) (*Pipeline, string) {
	t.Helper()
	base := t.TempDir()
	workspaces := NewWorkspaceManager(base, testLogger())
	fetcher := NewFetcher(&fakePool{provider: provider}, fastDownloadConfig(), testLogger())
	return New(workspaces, fetcher, messenger, testLogger()), base
}

func testRequest(url string) domain.Request {
	return domain.Request{RequesterID: 42, RawURL: url, ReceivedAt: time.Now().UTC()}
}

func requireEmptyWorkspace(t *testing.T, base string) {
	t.Helper()
	dir := filepath.Join(base, "downloads_42")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatalf("read workspace: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("workspace has %d leftover files, want 0", len(entries))
	}
}

func TestPipeline_SuccessfulDelivery(t *testing.T) {
	provider := &fakeProvider{meta: videoMeta()}
	messenger := &fakeMessenger{}
	p, base := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))

	if len(messenger.videos) != 1 {
		t.Fatalf("video replies = %d, want 1", len(messenger.videos))
	}
	if messenger.captions[0] != "✅ Here's your video!" {
		t.Errorf("caption = %q", messenger.captions[0])
	}
	requireEmptyWorkspace(t, base)

	completed, failed := p.Stats()
	if completed != 1 || failed != 0 {
		t.Errorf("stats = (%d, %d), want (1, 0)", completed, failed)
	}
}

func TestPipeline_PostWithoutVideo(t *testing.T) {
	provider := &fakeProvider{meta: domain.PostMetadata{IsVideo: false}}
	messenger := &fakeMessenger{}
	p, base := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))

	if got := messenger.lastText(t); got != "This post does not contain a video." {
		t.Errorf("reply = %q", got)
	}
	if len(messenger.videos) != 0 {
		t.Errorf("video replies = %d, want 0", len(messenger.videos))
	}
	// No-video is terminal: a single resolution, no retry.
	if provider.resolveCalls != 1 {
		t.Errorf("resolve calls = %d, want 1", provider.resolveCalls)
	}
	requireEmptyWorkspace(t, base)
}

func TestPipeline_RateLimitedThenDelivered(t *testing.T) {
	provider := &fakeProvider{
		meta:        videoMeta(),
		resolveErrs: []error{domain.ErrRateLimited, domain.ErrRateLimited, nil},
	}
	messenger := &fakeMessenger{}
	p, base := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))

	if len(messenger.videos) != 1 {
		t.Fatalf("video replies = %d, want 1", len(messenger.videos))
	}
	if provider.resolveCalls != 3 {
		t.Errorf("resolve calls = %d, want 3", provider.resolveCalls)
	}
	requireEmptyWorkspace(t, base)
}

func TestPipeline_OversizeVideo(t *testing.T) {
	provider := &fakeProvider{meta: videoMeta()}
	messenger := &fakeMessenger{videoErr: domain.ErrOversize}
	p, base := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))

	if got := messenger.lastText(t); !strings.Contains(got, "too large") {
		t.Errorf("reply = %q, want oversize message", got)
	}
	// Artifact deleted even though delivery was rejected.
	if len(messenger.videos) != 1 {
		t.Fatalf("video replies = %d, want 1", len(messenger.videos))
	}
	if _, err := os.Stat(messenger.videos[0]); !os.IsNotExist(err) {
		t.Errorf("artifact should be deleted after delivery attempt, stat err = %v", err)
	}
	requireEmptyWorkspace(t, base)
}

func TestPipeline_PrivatePost(t *testing.T) {
	provider := &fakeProvider{resolveErrs: []error{domain.ErrPrivatePost}}
	messenger := &fakeMessenger{}
	p, base := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))

	if got := messenger.lastText(t); !strings.Contains(got, "private") {
		t.Errorf("reply = %q, want private message", got)
	}
	requireEmptyWorkspace(t, base)
}

func TestPipeline_MalformedURL(t *testing.T) {
	provider := &fakeProvider{}
	messenger := &fakeMessenger{}
	p, _ := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("notaurl"))

	// The original treated a parser failure as an unclassified error.
	if got := messenger.lastText(t); !strings.Contains(got, "something went wrong") {
		t.Errorf("reply = %q, want generic apology", got)
	}
	if provider.resolveCalls != 0 {
		t.Errorf("resolve calls = %d, want 0", provider.resolveCalls)
	}
}

func TestPipeline_AcknowledgesBeforeWork(t *testing.T) {
	provider := &fakeProvider{meta: videoMeta()}
	messenger := &fakeMessenger{}
	p, _ := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))

	if len(messenger.texts) == 0 || !strings.Contains(messenger.texts[0], "Processing") {
		t.Errorf("first reply should be the processing acknowledgement, got %v", messenger.texts)
	}
}

func TestPipeline_SameRequesterSerialized(t *testing.T) {
	provider := &fakeProvider{meta: videoMeta()}
	messenger := &fakeMessenger{}
	p, base := newTestPipeline(t, provider, messenger)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))
		}()
	}
	wg.Wait()

	if len(messenger.videos) != 4 {
		t.Errorf("video replies = %d, want 4", len(messenger.videos))
	}
	requireEmptyWorkspace(t, base)
}

func TestPipeline_FailureCountsTracked(t *testing.T) {
	provider := &fakeProvider{resolveErrs: []error{domain.ErrPostNotFound}}
	messenger := &fakeMessenger{}
	p, _ := newTestPipeline(t, provider, messenger)

	p.Handle(context.Background(), testRequest("https://instagram.com/p/ABC123/"))

	completed, failed := p.Stats()
	if completed != 0 || failed != 1 {
		t.Errorf("stats = (%d, %d), want (0, 1)", completed, failed)
	}
}

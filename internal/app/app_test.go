package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/usecase"
)

const feedBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test</title>
<item><title>First</title><link>https://news.example/1</link></item>
<item><title>Second</title><link>https://news.example/2</link></item>
</channel></rss>`

type captureTransport struct {
	mu   sync.Mutex
	sent []ports.Message
}

func (c *captureTransport) Send(_ context.Context, msg ports.Message) (domain.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return domain.MessageRef(len(c.sent)), nil
}

func (c *captureTransport) Delete(context.Context, string, domain.MessageRef) error {
	return nil
}

func testConfig(t *testing.T, feedURL string) config.Config {
	t.Helper()
	return config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "news.db")},
		Telegram: config.TelegramConfig{ChannelID: "@news"},
		Sources: []config.SourceConfig{
			{ID: "Feed", Kind: "feed", FetchURL: feedURL},
		},
	}
}

func TestApplicationPublishesFromFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	ctx := context.Background()
	tr := &captureTransport{}
	a, err := New(ctx, testConfig(t, srv.URL), logging.Discard(), WithTransport(tr))
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	req := usecase.DispatchRequest{Action: domain.ActionPublish, Source: "Feed", Count: domain.AllItems}
	out, err := a.Pipeline().Dispatch(ctx, req)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Published != 2 {
		t.Fatalf("expected 2 published, got %+v", out)
	}

	out, err = a.Pipeline().Dispatch(ctx, req)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if out.Skipped != 2 || len(tr.sent) != 2 {
		t.Fatalf("second run should skip everything: %+v, sent %d", out, len(tr.sent))
	}
	if tr.sent[0].Audience != "@news" {
		t.Fatalf("unexpected audience %q", tr.sent[0].Audience)
	}
}

func TestServeRequiresBot(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), testConfig(t, "http://127.0.0.1:0"), logging.Discard(), WithTransport(&captureTransport{}))
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	if err := a.Serve(context.Background()); err == nil {
		t.Fatal("expected serve to fail without a bot")
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.Database.Driver = "oracle"
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/scanner"
)

func eightItemPage() string {
	var b strings.Builder
	b.WriteString("<ul>")
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&b, `<li class="news"><a href="/n/%d">Item %d</a></li>`, i, i)
	}
	// duplicate of the first entry further down the page
	b.WriteString(`<li class="news"><a href="/n/1">Item 1 again</a></li>`)
	b.WriteString("</ul>")
	return b.String()
}

func newTestSource(t *testing.T, handler http.HandlerFunc) *StrategySource {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	reg := scanner.NewRegistry()
	reg.Register(NewHTMLScanner(nil))
	reg.Register(NewFeedScanner())

	sources := []config.SourceConfig{
		{
			ID:             "A",
			Kind:           "html",
			FetchURL:       server.URL + "/news",
			ItemSelector:   "li.news a",
			LinkAttr:       "href",
			LinkPrefix:     "https://a.example",
			LinkPrefixRule: "relative",
		},
		{
			ID:       "Feed",
			Kind:     "feed",
			FetchURL: server.URL + "/rss",
		},
		{
			ID:       "Odd",
			Kind:     "pdf",
			FetchURL: server.URL + "/odd",
		},
	}

	fetcher := NewHTTPFetcher(server.Client(), 0, "test-agent")
	return NewStrategySource(reg, fetcher, sources, nil)
}

func TestStrategySourceTruncatesInOrder(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(eightItemPage()))
	})

	got, err := src.Extract(context.Background(), "A", 5)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(got))
	}
	for i, c := range got {
		wantLink := fmt.Sprintf("https://a.example/n/%d", i+1)
		if c.Link != wantLink || c.Title != fmt.Sprintf("Item %d", i+1) {
			t.Fatalf("candidate %d out of order: %+v", i, c)
		}
	}
}

func TestStrategySourceReturnsAllWhenCountExceeds(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(eightItemPage()))
	})

	for _, count := range []int{20, domain.AllItems} {
		got, err := src.Extract(context.Background(), "A", count)
		if err != nil {
			t.Fatalf("Extract(%d) error: %v", count, err)
		}
		if len(got) != 8 {
			t.Fatalf("Extract(%d): expected 8 unique candidates, got %d", count, len(got))
		}
	}
}

func TestStrategySourceFeed(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(lentaFeed))
	})

	got, err := src.Extract(context.Background(), "Feed", 1)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Newest item" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestStrategySourceFetchError(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := src.Extract(context.Background(), "A", 3)
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}

	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Status != http.StatusBadGateway {
		t.Fatalf("expected FetchError with 502, got %v", err)
	}
}

func TestStrategySourceStructureMismatchIsEmpty(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>redesigned page</body></html>"))
	})

	got, err := src.Extract(context.Background(), "A", 3)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}

	got, err = src.Extract(context.Background(), "Feed", 3)
	if err != nil {
		t.Fatalf("Extract feed error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty feed result, got %+v", got)
	}
}

func TestStrategySourceUnknownSource(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := src.Extract(context.Background(), "Missing", 1); !errors.Is(err, domain.ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
	if _, err := src.Extract(context.Background(), "Odd", 1); err == nil {
		t.Fatal("expected error for unregistered scanner kind")
	}
}

func TestStrategySourceSources(t *testing.T) {
	t.Parallel()

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {})
	got := src.Sources()
	if strings.Join(got, ",") != "A,Feed,Odd" {
		t.Fatalf("unexpected source order: %v", got)
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	fetcher := NewHTTPFetcher(nil, 50*time.Millisecond, "")
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch on timeout, got %v", err)
	}
}

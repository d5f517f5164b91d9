package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

type fakeExtractor struct {
	mu         sync.Mutex
	candidates map[string][]domain.Candidate
	err        error
	calls      int
}

func (f *fakeExtractor) Extract(_ context.Context, sourceID string, maxCount int) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	items, ok := f.candidates[sourceID]
	if !ok {
		return nil, domain.ErrUnknownSource
	}
	if maxCount > 0 && maxCount < len(items) {
		items = items[:maxCount]
	}
	out := make([]domain.Candidate, len(items))
	copy(out, items)
	return out, nil
}

func (f *fakeExtractor) Sources() []string {
	ids := make([]string, 0, len(f.candidates))
	for id := range f.candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type memLedger struct {
	mu        sync.Mutex
	entries   map[string]domain.LedgerEntry
	seq       int
	failWrite error
	// beforeRecord runs inside Record before the uniqueness check.
	beforeRecord func(link string)
}

func newMemLedger() *memLedger {
	return &memLedger{entries: map[string]domain.LedgerEntry{}}
}

func (m *memLedger) Contains(_ context.Context, link string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[link]
	return ok, nil
}

func (m *memLedger) Record(_ context.Context, entry domain.LedgerEntry) (bool, error) {
	if m.beforeRecord != nil {
		m.beforeRecord(entry.Link)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return false, m.failWrite
	}
	if _, ok := m.entries[entry.Link]; ok {
		return false, nil
	}
	m.seq++
	if entry.PublishedAt.IsZero() {
		entry.PublishedAt = time.Date(2024, time.January, 1, 0, 0, m.seq, 0, time.UTC)
	}
	m.entries[entry.Link] = entry
	return true, nil
}

func (m *memLedger) LookupForDelete(_ context.Context, link string) (domain.MessageRef, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[link]
	return e.MessageRef, ok, nil
}

func (m *memLedger) Remove(_ context.Context, link string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return false, m.failWrite
	}
	_, ok := m.entries[link]
	delete(m.entries, link)
	return ok, nil
}

func (m *memLedger) Report(_ context.Context, filter domain.ReportFilter) ([]domain.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LedgerEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memLedger) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type fakeTransport struct {
	mu        sync.Mutex
	sent      []ports.Message
	deleted   []domain.MessageRef
	nextRef   domain.MessageRef
	failSend  func(msg ports.Message) bool
	deleteErr error
}

func (f *fakeTransport) Send(_ context.Context, msg ports.Message) (domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend != nil && f.failSend(msg) {
		return 0, errors.New("transport unavailable")
	}
	f.nextRef++
	f.sent = append(f.sent, msg)
	return f.nextRef + 100, nil
}

func (f *fakeTransport) Delete(_ context.Context, _ string, ref domain.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return f.deleteErr
}

func (f *fakeTransport) sentTo(audience string) []ports.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Message
	for _, m := range f.sent {
		if m.Audience == audience {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) deletions() []domain.MessageRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.MessageRef(nil), f.deleted...)
}

type countingMetrics struct {
	mu       sync.Mutex
	items    map[string]int
	fetches  int
	removals int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{items: map[string]int{}}
}

func (c *countingMetrics) ItemDispatched(_ string, _ domain.Action, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[result]++
}

func (c *countingMetrics) FetchFailed(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
}

func (c *countingMetrics) EntryRemoved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removals++
}

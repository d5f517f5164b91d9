package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const (
	resultPublished = "published"
	resultSkipped   = "skipped"
	resultFailed    = "failed"
	resultPreviewed = "previewed"
)

// PipelineDeps wires all driven adapters into the dispatch pipeline.
type PipelineDeps struct {
	Extractor ports.Extractor
	Ledger    ports.Ledger
	Transport ports.Transport
	Metrics   ports.Metrics
	Channel   string
	Logger    *slog.Logger
}

// Pipeline extracts candidates, filters already published links and hands posts to the transport.
type Pipeline struct {
	extractor ports.Extractor
	ledger    ports.Ledger
	transport ports.Transport
	metrics   ports.Metrics
	channel   string
	logger    *slog.Logger
	locks     *keyLock
}

// DispatchRequest selects what to harvest and where previews go.
type DispatchRequest struct {
	Action   domain.Action
	Source   string
	Count    int
	Audience string
}

// DeleteResult describes a completed delete.
type DeleteResult struct {
	Ref       domain.MessageRef
	Retracted bool
	Warning   *domain.RetractionWarning
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		extractor: deps.Extractor,
		ledger:    deps.Ledger,
		transport: deps.Transport,
		metrics:   deps.Metrics,
		channel:   deps.Channel,
		logger:    deps.Logger,
		locks:     newKeyLock(),
	}
	if p.metrics == nil {
		p.metrics = nopMetrics{}
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Sources lists the source ids the extractor knows about.
func (p *Pipeline) Sources() []string {
	if p.extractor == nil {
		return nil
	}
	return p.extractor.Sources()
}

// Transport returns the transport used for channel posts and replies.
func (p *Pipeline) Transport() ports.Transport {
	return p.transport
}

// Dispatch previews or publishes up to req.Count candidates from req.Source.
// For previews Outcome.Published counts messages delivered to req.Audience.
func (p *Pipeline) Dispatch(ctx context.Context, req DispatchRequest) (domain.Outcome, error) {
	var outcome domain.Outcome

	if req.Action != domain.ActionPreview && req.Action != domain.ActionPublish {
		return outcome, fmt.Errorf("%w: action %q cannot be dispatched", domain.ErrInvalidInput, req.Action)
	}
	if p.extractor == nil || p.transport == nil {
		return outcome, fmt.Errorf("pipeline is not configured")
	}
	if req.Action == domain.ActionPublish && p.ledger == nil {
		return outcome, fmt.Errorf("pipeline has no ledger")
	}

	candidates, err := p.extractor.Extract(ctx, req.Source, req.Count)
	if err != nil {
		if errors.Is(err, domain.ErrFetch) {
			p.metrics.FetchFailed(req.Source)
		}
		return outcome, fmt.Errorf("extract %s: %w", req.Source, err)
	}
	if len(candidates) == 0 {
		return outcome, fmt.Errorf("%w: source %s returned nothing", domain.ErrNoContent, req.Source)
	}

	for _, candidate := range candidates {
		outcome.Attempted++
		payload := Format(candidate.Title, candidate.Link, req.Source)

		if req.Action == domain.ActionPreview {
			if _, err := p.transport.Send(ctx, ports.Message{Audience: req.Audience, Text: payload, HTML: true}); err != nil {
				outcome.Failed++
				p.metrics.ItemDispatched(req.Source, req.Action, resultFailed)
				p.logger.Warn("preview send failed", "source", req.Source, "link", candidate.Link, "error", err)
				continue
			}
			outcome.Published++
			p.metrics.ItemDispatched(req.Source, req.Action, resultPreviewed)
			continue
		}

		result, err := p.publishOne(ctx, req.Source, candidate, payload)
		if err != nil {
			return outcome, err
		}
		p.metrics.ItemDispatched(req.Source, req.Action, result)
		switch result {
		case resultPublished:
			outcome.Published++
		case resultSkipped:
			outcome.Skipped++
		default:
			outcome.Failed++
		}
	}

	p.logger.Info("dispatch finished",
		"action", req.Action,
		"source", req.Source,
		"attempted", outcome.Attempted,
		"published", outcome.Published,
		"skipped", outcome.Skipped,
		"failed", outcome.Failed)

	return outcome, nil
}

// publishOne runs check-send-record for a single link while holding its lock.
// Only ledger failures are returned as errors; transport failures are a result.
func (p *Pipeline) publishOne(ctx context.Context, source string, candidate domain.Candidate, payload string) (string, error) {
	unlock := p.locks.Lock(candidate.Link)
	defer unlock()

	exists, err := p.ledger.Contains(ctx, candidate.Link)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", candidate.Link, err)
	}
	if exists {
		p.logger.Debug("already published", "source", source, "link", candidate.Link)
		return resultSkipped, nil
	}

	ref, err := p.transport.Send(ctx, ports.Message{Audience: p.channel, Text: payload, HTML: true})
	if err != nil {
		p.logger.Warn("publish failed", "source", source, "link", candidate.Link, "error", err)
		return resultFailed, nil
	}

	inserted, err := p.ledger.Record(ctx, domain.LedgerEntry{
		Link:       candidate.Link,
		Title:      candidate.Title,
		Source:     source,
		MessageRef: ref,
	})
	if err != nil {
		// an unrecorded post would be sent again on the next run
		p.logger.Error("published message not recorded, retracting", "source", source, "link", candidate.Link, "message_ref", ref, "error", err)
		if derr := p.transport.Delete(ctx, p.channel, ref); derr != nil {
			p.logger.Error("retract unrecorded message failed", "link", candidate.Link, "message_ref", ref, "error", derr)
		}
		return "", fmt.Errorf("record %s: %w", candidate.Link, err)
	}

	if !inserted {
		// another process recorded the link between our check and insert
		p.logger.Warn("link recorded concurrently, retracting duplicate", "link", candidate.Link, "message_ref", ref)
		if err := p.transport.Delete(ctx, p.channel, ref); err != nil {
			p.logger.Warn("retract duplicate failed", "link", candidate.Link, "message_ref", ref, "error", err)
		}
		return resultSkipped, nil
	}

	p.logger.Info("published", "source", source, "title", candidate.Title, "message_ref", ref)
	return resultPublished, nil
}

// Delete retracts the channel post for link and removes it from the ledger.
// A failed retraction is reported in the result; the ledger entry is removed regardless.
func (p *Pipeline) Delete(ctx context.Context, link string) (DeleteResult, error) {
	var result DeleteResult

	link = strings.TrimSpace(link)
	if p.ledger == nil {
		return result, fmt.Errorf("pipeline has no ledger")
	}

	unlock := p.locks.Lock(link)
	defer unlock()

	ref, found, err := p.ledger.LookupForDelete(ctx, link)
	if err != nil {
		return result, fmt.Errorf("lookup %s: %w", link, err)
	}
	if !found {
		return result, fmt.Errorf("%w: %s", domain.ErrNotFound, link)
	}
	result.Ref = ref

	if ref != 0 && p.transport != nil {
		if err := p.transport.Delete(ctx, p.channel, ref); err != nil {
			p.logger.Warn("retract message failed", "link", link, "message_ref", ref, "error", err)
			result.Warning = &domain.RetractionWarning{Link: link, Ref: ref, Err: err}
		} else {
			result.Retracted = true
		}
	}

	removed, err := p.ledger.Remove(ctx, link)
	if err != nil {
		return result, fmt.Errorf("remove %s: %w", link, err)
	}
	if !removed {
		return result, fmt.Errorf("%w: %s", domain.ErrNotFound, link)
	}

	p.metrics.EntryRemoved()
	p.logger.Info("deleted", "link", link, "message_ref", ref, "retracted", result.Retracted)
	return result, nil
}

// Inspection pairs a candidate with its ledger status.
type Inspection struct {
	Candidate domain.Candidate
	Published bool
}

// Inspect extracts candidates without sending anything and reports which are already in the ledger.
func (p *Pipeline) Inspect(ctx context.Context, source string, count int) ([]Inspection, error) {
	if p.extractor == nil || p.ledger == nil {
		return nil, fmt.Errorf("pipeline is not configured")
	}
	candidates, err := p.extractor.Extract(ctx, source, count)
	if err != nil {
		if errors.Is(err, domain.ErrFetch) {
			p.metrics.FetchFailed(source)
		}
		return nil, fmt.Errorf("extract %s: %w", source, err)
	}

	out := make([]Inspection, 0, len(candidates))
	for _, c := range candidates {
		published, err := p.ledger.Contains(ctx, c.Link)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", c.Link, err)
		}
		out = append(out, Inspection{Candidate: c, Published: published})
	}
	return out, nil
}

// Report returns ledger entries matching filter.
func (p *Pipeline) Report(ctx context.Context, filter domain.ReportFilter) ([]domain.LedgerEntry, error) {
	if p.ledger == nil {
		return nil, fmt.Errorf("pipeline has no ledger")
	}
	entries, err := p.ledger.Report(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", filter, err)
	}
	return entries, nil
}

type nopMetrics struct{}

func (nopMetrics) ItemDispatched(string, domain.Action, string) {}
func (nopMetrics) FetchFailed(string)                           {}
func (nopMetrics) EntryRemoved()                                {}

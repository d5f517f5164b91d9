package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/scanner"
)

// StrategySource implements ports.Extractor via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	fetcher  Fetcher
	rules    map[string]scanner.Rule
	order    []string
	logger   *slog.Logger
}

var _ ports.Extractor = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, fetcher Fetcher, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	s := &StrategySource{
		registry: reg,
		fetcher:  fetcher,
		rules:    make(map[string]scanner.Rule, len(sources)),
		logger:   log,
	}
	for _, src := range sources {
		if _, dup := s.rules[src.ID]; dup {
			continue
		}
		s.rules[src.ID] = src.Rule()
		s.order = append(s.order, src.ID)
	}
	return s
}

// Sources lists known source ids in config order.
func (s *StrategySource) Sources() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Extract fetches the source page and returns at most maxCount candidates in page order.
// A page that does not match the rule yields an empty result rather than an error.
func (s *StrategySource) Extract(ctx context.Context, sourceID string, maxCount int) ([]domain.Candidate, error) {
	if s.registry == nil || s.fetcher == nil {
		return nil, fmt.Errorf("strategy source is not configured")
	}

	rule, ok := s.rules[sourceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, sourceID)
	}

	strategy, err := s.registry.Resolve(rule.Kind)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", sourceID, err)
	}

	s.debug("fetch source", "source", sourceID, "url", rule.FetchURL, "scanner", rule.Kind)
	raw, err := s.fetcher.Fetch(ctx, rule.FetchURL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", sourceID, err)
	}

	found, err := strategy.Scan(ctx, raw, rule)
	if err != nil {
		if !errors.Is(err, domain.ErrParse) {
			return nil, fmt.Errorf("scan source %s: %w", sourceID, err)
		}
		if s.logger != nil {
			s.logger.Warn("source page did not match rule", "source", sourceID, "error", err)
		}
		return []domain.Candidate{}, nil
	}

	result := make([]domain.Candidate, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, candidate := range found {
		if _, dup := seen[candidate.Link]; dup {
			continue
		}
		seen[candidate.Link] = struct{}{}
		result = append(result, candidate)
		if maxCount > 0 && len(result) == maxCount {
			break
		}
	}

	s.debug("source produced candidates", "source", sourceID, "found", len(found), "returned", len(result))
	return result, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

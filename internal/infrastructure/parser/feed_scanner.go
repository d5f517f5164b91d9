package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/scanner"
)

// maxDescriptionTitle caps titles taken from an item description.
const maxDescriptionTitle = 200

// FeedScanner extracts candidates from RSS and Atom feeds.
type FeedScanner struct {
	feedParser *gofeed.Parser
	policy     *bluemonday.Policy
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner builds the "feed" strategy.
func NewFeedScanner() *FeedScanner {
	return &FeedScanner{feedParser: gofeed.NewParser(), policy: bluemonday.StrictPolicy()}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan keeps feed item order, which is newest first for the supported sources.
func (f *FeedScanner) Scan(_ context.Context, raw []byte, rule scanner.Rule) ([]domain.Candidate, error) {
	feed, err := f.feedParser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %v", domain.ErrParse, err)
	}
	if feed == nil {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := collapseSpaces(item.Title)
		if title == "" {
			title = f.descriptionTitle(item.Description)
		}
		link := rule.AbsoluteLink(item.Link)
		if title == "" || link == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{Title: title, Link: link})
	}

	return candidates, nil
}

// descriptionTitle turns an HTML item description into a plain-text title.
func (f *FeedScanner) descriptionTitle(description string) string {
	text := collapseSpaces(html.UnescapeString(f.policy.Sanitize(description)))
	if runes := []rune(text); len(runes) > maxDescriptionTitle {
		text = string(runes[:maxDescriptionTitle-1]) + "…"
	}
	return text
}

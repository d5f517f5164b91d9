package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/scanner"
)

// HTMLScanner extracts candidates from HTML pages using the rule's CSS selectors.
type HTMLScanner struct {
	logger *slog.Logger
}

var _ scanner.Scanner = (*HTMLScanner)(nil)

// NewHTMLScanner builds the "html" strategy.
func NewHTMLScanner(log *slog.Logger) *HTMLScanner {
	return &HTMLScanner{logger: log}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan walks every element matching the item selector in document order.
func (h *HTMLScanner) Scan(_ context.Context, raw []byte, rule scanner.Rule) ([]domain.Candidate, error) {
	if strings.TrimSpace(rule.ItemSelector) == "" {
		return nil, fmt.Errorf("%w: source %s has no item selector", domain.ErrParse, rule.SourceID)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %v", domain.ErrParse, err)
	}

	var (
		collected []domain.Candidate
		dropped   int
	)

	doc.Find(rule.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		candidate, ok := parseItem(item, rule)
		if !ok {
			dropped++
			return
		}
		collected = append(collected, candidate)
	})

	if dropped > 0 && h.logger != nil {
		h.logger.Debug("items without title or link dropped", "source", rule.SourceID, "dropped", dropped)
	}

	return collected, nil
}

func parseItem(item *goquery.Selection, rule scanner.Rule) (domain.Candidate, bool) {
	titleNode := item
	if rule.TitleSelector != "" {
		titleNode = item.Find(rule.TitleSelector).First()
	}
	title := collapseSpaces(titleNode.Text())

	linkNode := item
	if rule.LinkSelector != "" {
		linkNode = item.Find(rule.LinkSelector).First()
	}
	attr := rule.LinkAttr
	if attr == "" {
		attr = "href"
	}
	href, _ := linkNode.Attr(attr)
	link := rule.AbsoluteLink(href)

	if title == "" || link == "" {
		return domain.Candidate{}, false
	}

	return domain.Candidate{Title: title, Link: link}, true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package scanner

import (
	"context"
	"fmt"
	"strings"

	"NewsRelay/internal/domain"
)

// PrefixRule controls how relative links are turned into absolute ones.
type PrefixRule string

const (
	// PrefixRelative prepends the prefix only to links that are not absolute.
	PrefixRelative PrefixRule = "relative"
	// PrefixAlways concatenates the prefix unconditionally.
	PrefixAlways PrefixRule = "always"
	// PrefixNone keeps links as found.
	PrefixNone PrefixRule = "none"
)

// Rule carries the per-source extraction settings provided by config.
type Rule struct {
	SourceID      string
	Kind          string
	FetchURL      string
	ItemSelector  string
	TitleSelector string
	LinkSelector  string
	LinkAttr      string
	LinkPrefix    string
	PrefixRule    PrefixRule
}

// Scanner turns raw fetched content into candidates following a rule.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, raw []byte, rule Rule) ([]domain.Candidate, error)
}

// Registry keeps a mapping from scanner kinds to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (Scanner, error) {
	if scanner, ok := r.scanners[kind]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", kind)
}

// AbsoluteLink applies the rule's prefix policy to a raw href.
func (r Rule) AbsoluteLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	switch r.PrefixRule {
	case PrefixNone:
		return href
	case PrefixAlways:
		return r.LinkPrefix + href
	default:
		if isAbsolute(href) || r.LinkPrefix == "" {
			return href
		}
		if strings.HasPrefix(href, "//") {
			return "https:" + href
		}
		return strings.TrimSuffix(r.LinkPrefix, "/") + "/" + strings.TrimPrefix(href, "/")
	}
}

func isAbsolute(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

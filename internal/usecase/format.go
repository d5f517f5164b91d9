package usecase

import (
	"fmt"
	"html"
	"strings"

	"NewsRelay/internal/domain"
)

// maxMessageLen stays under Telegram's 4096 character limit.
const maxMessageLen = 4000

// Format renders the channel post for one article. Title and source are plain text.
func Format(title, link, source string) string {
	return fmt.Sprintf("📰 <b>%s</b>\n\n🔗 <a href=\"%s\">Read more</a>\n\nSource: %s",
		html.EscapeString(title),
		html.EscapeString(link),
		html.EscapeString(source))
}

// RenderReport formats ledger entries and splits them into messages that fit the transport limit.
func RenderReport(entries []domain.LedgerEntry) []string {
	var (
		pages   []string
		current strings.Builder
	)

	for _, entry := range entries {
		block := fmt.Sprintf("📌 <b>%s</b>\n🔗 <a href=\"%s\">Read</a>\n📰 %s | 🕒 %s",
			html.EscapeString(entry.Title),
			html.EscapeString(entry.Link),
			html.EscapeString(entry.Source),
			entry.PublishedAt.Format("2006-01-02 15:04:05"))

		if current.Len() > 0 && current.Len()+2+len(block) > maxMessageLen {
			pages = append(pages, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}

	if current.Len() > 0 {
		pages = append(pages, current.String())
	}
	return pages
}

package runner

import (
	"context"
	"fmt"
	"strings"
)

// KillSwitch is polled once before every article.
type KillSwitch interface {
	ShouldContinue(ctx context.Context) (bool, error)
}

// AlwaysOn never stops the run.
type AlwaysOn struct{}

// ShouldContinue always returns true.
func (AlwaysOn) ShouldContinue(context.Context) (bool, error) { return true, nil }

// PageReader fetches the text of a wiki page.
type PageReader interface {
	FetchText(ctx context.Context, title string) (string, error)
}

// PageSwitch lets wiki editors stop the bot: the run continues only while
// the trimmed text of Page equals Value (case-insensitive).
type PageSwitch struct {
	Reader PageReader
	Page   string
	Value  string
}

// ShouldContinue reads the switch page.
func (s PageSwitch) ShouldContinue(ctx context.Context) (bool, error) {
	text, err := s.Reader.FetchText(ctx, s.Page)
	if err != nil {
		return false, fmt.Errorf("read kill switch %q: %w", s.Page, err)
	}

	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(s.Value)), nil
}

package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/btraven00/ampclean/internal/markup"
)

// Sink file names inside the log directory.
const (
	LogFileName    = "amp_log.txt"
	ChangeFileName = "amp_change.txt"
	ListFileName   = "amp_list.txt"
	SkipFileName   = "amp_skip.txt"
)

// Sinks are the append-only, human-readable logs of a run:
//   - Log: failures, stop conditions and the final summary
//   - Change: full updated text of each changed article (dry-run review)
//   - List: accepted URL rewrites and edited titles
//   - Skip: rewrites rejected because they would break a working link
type Sinks struct {
	Log     io.Writer
	Change  io.Writer
	List    io.Writer
	Skip    io.Writer
	closers []io.Closer
}

// DiscardSinks returns sinks that drop everything.
func DiscardSinks() *Sinks {
	return &Sinks{
		Log:    io.Discard,
		Change: io.Discard,
		List:   io.Discard,
		Skip:   io.Discard,
	}
}

// OpenFileSinks opens (creating as needed) the four sink files in dir for
// appending.
func OpenFileSinks(dir string) (*Sinks, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	sinks := &Sinks{}

	targets := []struct {
		dst  *io.Writer
		name string
	}{
		{dst: &sinks.Log, name: LogFileName},
		{dst: &sinks.Change, name: ChangeFileName},
		{dst: &sinks.List, name: ListFileName},
		{dst: &sinks.Skip, name: SkipFileName},
	}

	for _, target := range targets {
		f, err := os.OpenFile(filepath.Join(dir, target.name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			_ = sinks.Close()
			return nil, fmt.Errorf("open %s: %w", target.name, err)
		}

		*target.dst = f
		sinks.closers = append(sinks.closers, f)
	}

	return sinks, nil
}

// Close closes any files opened by OpenFileSinks.
func (s *Sinks) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}

	s.closers = nil

	return errors.Join(errs...)
}

// Logf appends one line to the run log.
func (s *Sinks) Logf(format string, args ...any) {
	fmt.Fprintf(s.Log, format+"\n", args...)
}

// RecordChange appends the updated text of an article to the change log.
func (s *Sinks) RecordChange(title, text string) {
	fmt.Fprintf(s.Change, "* updated text for %s:\n%s\n%s\n", title, text, strings.Repeat("=", 40))
}

// RecordEdit appends an edited title to the edit list.
func (s *Sinks) RecordEdit(title string) {
	fmt.Fprintf(s.List, "%s\n", title)
}

// Emit routes an edit record: accepted rewrites go to the edit list,
// rejected ones to the skip log.
func (s *Sinks) Emit(record markup.EditRecord) {
	if record.Disposition.Replaces() {
		fmt.Fprintf(s.List, "%s\n", record.Block())
		return
	}

	fmt.Fprintf(s.Skip, "%s\n", record.String())
}

package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadTitles reads an article title list from path.
func ReadTitles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open title list: %w", err)
	}
	defer f.Close()

	titles, err := ParseTitles(f)
	if err != nil {
		return nil, fmt.Errorf("read title list %s: %w", path, err)
	}

	return titles, nil
}

// ParseTitles reads one title per line. Lines are trimmed; blank lines and
// lines starting with '#' are skipped and duplicates are dropped keeping the
// first occurrence.
func ParseTitles(r io.Reader) ([]string, error) {
	var titles []string

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		title := strings.TrimSpace(scanner.Text())
		if title == "" || strings.HasPrefix(title, "#") {
			continue
		}

		if _, dup := seen[title]; dup {
			continue
		}

		seen[title] = struct{}{}
		titles = append(titles, title)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return titles, nil
}

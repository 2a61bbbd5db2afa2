package roulette

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"movie-roulette/internal/models"
)

const (
	maxImportTitles = 500
	maxTitleLength  = 200
)

// List is the ad-hoc movie list the uniform roulette draws from. It lives in
// memory on the hosting surface and is exchanged with other hosts as a plain
// text document, one title per line.
type List struct {
	mu     sync.Mutex
	titles []string
}

func NewList(seed ...string) *List {
	list := &List{}
	for _, title := range seed {
		list.Add(title)
	}
	return list
}

// Add appends a trimmed title, ignoring blanks and exact duplicates. It
// reports whether the list changed.
func (l *List) Add(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.titles {
		if existing == title {
			return false
		}
	}
	l.titles = append(l.titles, title)
	return true
}

func (l *List) Remove(title string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.titles {
		if existing == title {
			l.titles = append(l.titles[:i], l.titles[i+1:]...)
			return true
		}
	}
	return false
}

func (l *List) Titles() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.titles))
	copy(out, l.titles)
	return out
}

// Candidates adapts the titles to the Selector contract.
func (l *List) Candidates() []models.Candidate {
	titles := l.Titles()
	candidates := make([]models.Candidate, 0, len(titles))
	for i, title := range titles {
		candidates = append(candidates, models.Candidate{MovieTitle: title, DisplayOrder: i})
	}
	return candidates
}

// Export writes the list as plain text, one title per line.
func (l *List) Export(w io.Writer) error {
	for _, title := range l.Titles() {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	return nil
}

// Import merges titles from a plain text document into the list, set-union by
// exact title match. Returns the number of titles added. Fails with
// models.ErrImport when the document yields no valid title or exceeds the
// size cap.
func (l *List) Import(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	var titles []string
	for scanner.Scan() {
		title := strings.TrimSpace(scanner.Text())
		if title == "" {
			continue
		}
		if len(title) > maxTitleLength {
			return 0, fmt.Errorf("title longer than %d characters: %w", maxTitleLength, models.ErrImport)
		}
		titles = append(titles, title)
		if len(titles) > maxImportTitles {
			return 0, fmt.Errorf("more than %d titles: %w", maxImportTitles, models.ErrImport)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read import: %w", err)
	}
	if len(titles) == 0 {
		return 0, fmt.Errorf("no titles found: %w", models.ErrImport)
	}
	added := 0
	for _, title := range titles {
		if l.Add(title) {
			added++
		}
	}
	return added, nil
}

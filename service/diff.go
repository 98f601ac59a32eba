package service

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// TextHash returns the hex sha256 of normalized contract text, used to
// detect content changes during intake scans.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// ClauseChanges is a line-level diff between two contract versions.
type ClauseChanges struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// DetectClauseChanges compares two texts line by line, treating each
// non-empty trimmed line as a clause. Ordering inside the result is
// lexicographic so reports are stable.
func DetectClauseChanges(oldText, newText string) ClauseChanges {
	oldLines := lineSet(oldText)
	newLines := lineSet(newText)

	var changes ClauseChanges
	for line := range newLines {
		if _, ok := oldLines[line]; !ok {
			changes.Added = append(changes.Added, line)
		}
	}
	for line := range oldLines {
		if _, ok := newLines[line]; !ok {
			changes.Removed = append(changes.Removed, line)
		}
	}
	sort.Strings(changes.Added)
	sort.Strings(changes.Removed)
	return changes
}

// ChangeLog flattens a clause diff into human-readable log entries.
func (c ClauseChanges) ChangeLog() []string {
	log := make([]string, 0, len(c.Added)+len(c.Removed))
	for _, a := range c.Added {
		log = append(log, "+ "+a)
	}
	for _, r := range c.Removed {
		log = append(log, "- "+r)
	}
	return log
}

func lineSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[line] = struct{}{}
		}
	}
	return set
}

package core

import (
	"slices"
	"strings"
	"time"
)

// UntitledTitle replaces an empty title when a note is saved or displayed.
const UntitledTitle = "Untitled"

// Note is the central entity of the domain.
// It is the only thing QuickNote persists.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Tags      []string  `json:"tags" yaml:"tags"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// DisplayTitle returns the title, or UntitledTitle when it is blank.
func (n Note) DisplayTitle() string {
	if strings.TrimSpace(n.Title) == "" {
		return UntitledTitle
	}
	return n.Title
}

// IsBlank reports whether both title and content are empty after trimming.
func (n Note) IsBlank() bool {
	return strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Content) == ""
}

// HasTag reports whether the note carries tag (exact, case-sensitive match).
func (n Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// Clone returns a copy that does not share the tag slice.
func (n Note) Clone() Note {
	n.Tags = slices.Clone(n.Tags)
	return n
}

// Timestamp normalizes t to the precision and zone used for persisted notes.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ParseTags splits comma-separated input into trimmed, non-empty tokens,
// dropping tokens already present in existing or repeated within raw.
func ParseTags(raw string, existing []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

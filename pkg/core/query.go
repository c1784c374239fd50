package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllTags is the tag filter sentinel that disables tag filtering.
const AllTags = "all"

// SortKey selects the order of the displayed notes.
type SortKey string

const (
	SortUpdatedDesc SortKey = "updated-desc"
	SortUpdatedAsc  SortKey = "updated-asc"
	SortCreatedDesc SortKey = "created-desc"
	SortCreatedAsc  SortKey = "created-asc"
	SortTitleAsc    SortKey = "title-asc"
	SortTitleDesc   SortKey = "title-desc"
)

// SortKeys lists every supported sort key, default first.
var SortKeys = []SortKey{
	SortUpdatedDesc, SortUpdatedAsc,
	SortCreatedDesc, SortCreatedAsc,
	SortTitleAsc, SortTitleDesc,
}

// ParseSortKey validates a user supplied sort key. Empty input selects the default.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortUpdatedDesc, nil
	}
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(SortKeys, key) {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return key, nil
}

// Query describes the view derived from the repository.
type Query struct {
	// Search is matched case-insensitively against title, content and tags.
	Search string
	// Tag keeps only notes carrying this exact tag. Empty or AllTags disables it.
	Tag string
	// TagPattern keeps only notes with at least one tag matching this glob.
	TagPattern string
	Sort       SortKey
	// Lang drives title collation. The zero value is the root locale.
	Lang language.Tag
}

// View is the result of applying a Query.
type View struct {
	Notes []Note
	// Tags is every tag in use across the whole repository, sorted.
	Tags []string
}

// Apply derives the displayed sequence from notes. It never mutates notes.
func Apply(notes []Note, q Query) View {
	out := make([]Note, 0, len(notes))
	needle := strings.ToLower(q.Search)
	for _, n := range notes {
		if !matchesSearch(n, needle) || !matchesTag(n, q.Tag) || !matchesPattern(n, q.TagPattern) {
			continue
		}
		out = append(out, n.Clone())
	}

	sortNotes(out, q.Sort, q.Lang)

	return View{Notes: out, Tags: TagsInUse(notes)}
}

// TagsInUse returns the sorted union of every note's tags.
func TagsInUse(notes []Note) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, n := range notes {
		for _, t := range n.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	slices.Sort(tags)
	return tags
}

func matchesSearch(n Note, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Title), needle) ||
		strings.Contains(strings.ToLower(n.Content), needle) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func matchesTag(n Note, tag string) bool {
	if tag == "" || tag == AllTags {
		return true
	}
	return n.HasTag(tag)
}

func matchesPattern(n Note, pattern string) bool {
	if pattern == "" {
		return true
	}
	for _, t := range n.Tags {
		if ok, err := doublestar.Match(pattern, t); err == nil && ok {
			return true
		}
	}
	return false
}

func sortNotes(notes []Note, key SortKey, lang language.Tag) {
	var cmp func(a, b Note) int

	switch key {
	case SortUpdatedAsc:
		cmp = func(a, b Note) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortCreatedDesc:
		cmp = func(a, b Note) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortCreatedAsc:
		cmp = func(a, b Note) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortTitleAsc, SortTitleDesc:
		// Collators keep internal buffers and must not be shared.
		col := collate.New(lang)
		cmp = func(a, b Note) int { return col.CompareString(a.DisplayTitle(), b.DisplayTitle()) }
		if key == SortTitleDesc {
			asc := cmp
			cmp = func(a, b Note) int { return asc(b, a) }
		}
	default:
		cmp = func(a, b Note) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	}

	slices.SortStableFunc(notes, cmp)
}

package dropfeed

import (
	"sort"
	"time"
	"unicode/utf8"
)

// ExcerptLength is the number of characters of a post body served to readers.
const ExcerptLength = 80

// EffectivePublishedAt returns the published_at a write applies. An explicit
// publish yields now; anything else yields nil, which repositories read as
// "keep the stored value" on update and "draft" on insert.
func EffectivePublishedAt(publish *bool, now time.Time) *time.Time {
	if publish == nil || !*publish {
		return nil
	}
	t := now
	return &t
}

// PostVisible reports whether readers may see p.
func PostVisible(p *Post) bool {
	return p != nil && p.IsPremium && p.PublishedAt != nil
}

// AirdropVisible reports whether readers may see a.
func AirdropVisible(a *Airdrop) bool {
	return a != nil && a.Category.IsValid() && a.PublishedAt != nil
}

// LatestPost picks the visible post with the greatest published_at. Ties
// keep the first candidate seen.
func LatestPost(posts []*Post) *Post {
	var latest *Post
	for _, p := range posts {
		if !PostVisible(p) {
			continue
		}
		if latest == nil || p.PublishedAt.After(*latest.PublishedAt) {
			latest = p
		}
	}
	return latest
}

// SortAirdrops orders airdrops by ascending sort, then descending
// published_at. Unpublished entries sort after published ones of equal sort.
func SortAirdrops(items []*Airdrop) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Sort != b.Sort {
			return a.Sort < b.Sort
		}
		switch {
		case a.PublishedAt == nil:
			return false
		case b.PublishedAt == nil:
			return true
		default:
			return a.PublishedAt.After(*b.PublishedAt)
		}
	})
}

// Excerpt returns the first ExcerptLength characters of body.
func Excerpt(body string) string {
	if utf8.RuneCountInString(body) <= ExcerptLength {
		return body
	}
	n := 0
	for i := range body {
		if n == ExcerptLength {
			return body[:i]
		}
		n++
	}
	return body
}

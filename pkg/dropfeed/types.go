package dropfeed

import (
	"time"

	"github.com/google/uuid"
)

// Category partitions airdrops between the listing endpoints.
type Category string

// Category constants (typed).
const (
	CategoryToday    Category = "today"
	CategoryUpcoming Category = "upcoming"
)

// Categories returns every valid category in listing order.
func Categories() []Category {
	return []Category{CategoryToday, CategoryUpcoming}
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryToday, CategoryUpcoming:
		return true
	default:
		return false
	}
}

// ParseCategory converts a raw value into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Post is a piece of published content. BodyMD holds markdown source; only
// an excerpt of it is ever served to readers.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	BodyMD      string     `json:"body_md"`
	IsPremium   bool       `json:"is_premium"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Airdrop is a promotional listing entry.
type Airdrop struct {
	ID          uuid.UUID  `json:"id"`
	Category    Category   `json:"category"`
	Name        string     `json:"name"`
	Subtitle    *string    `json:"subtitle,omitempty"`
	Score       *float64   `json:"score,omitempty"`
	Amount      *string    `json:"amount,omitempty"`
	TimeText    *string    `json:"time_text,omitempty"`
	Badge       *string    `json:"badge,omitempty"`
	Sort        int        `json:"sort"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostUpsert is the repository-level write for a post. A nil ID inserts a
// new row; a nil PublishedAt leaves the stored publish state untouched.
type PostUpsert struct {
	ID          *uuid.UUID
	Title       string
	BodyMD      string
	PublishedAt *time.Time
}

// AirdropUpsert is the repository-level write for an airdrop.
//
// Sort and PublishedAt are coalesced: nil keeps the stored value on update
// (0 and NULL respectively on insert). The descriptive fields are always
// overwritten, nil clearing them.
type AirdropUpsert struct {
	ID          *uuid.UUID
	Category    Category
	Name        string
	Subtitle    *string
	Score       *float64
	Amount      *string
	TimeText    *string
	Badge       *string
	Sort        *int
	PublishedAt *time.Time
}

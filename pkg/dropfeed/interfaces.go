package dropfeed

import (
	"context"

	"github.com/google/uuid"
)

// PostRepository persists posts.
type PostRepository interface {
	// LatestVisiblePost returns the visible post with the greatest
	// published_at, or nil when no post is visible.
	LatestVisiblePost(ctx context.Context) (*Post, error)

	// UpsertPost updates the post named by p.ID, or inserts a premium post
	// when p.ID is nil. Returns ErrPostNotFound for an unknown ID.
	UpsertPost(ctx context.Context, p PostUpsert) (uuid.UUID, error)

	// ListPosts returns every post, drafts included, most recently updated first.
	ListPosts(ctx context.Context) ([]*Post, error)
}

// AirdropRepository persists airdrops.
type AirdropRepository interface {
	// ListVisibleAirdrops returns the visible airdrops of a category ordered
	// by ascending sort, then descending published_at.
	ListVisibleAirdrops(ctx context.Context, category Category) ([]*Airdrop, error)

	// UpsertAirdrop updates the airdrop named by a.ID, or inserts one when
	// a.ID is nil. Returns ErrAirdropNotFound for an unknown ID.
	UpsertAirdrop(ctx context.Context, a AirdropUpsert) (uuid.UUID, error)

	// ClearAirdrops deletes the airdrops of category, or all airdrops when
	// category is nil. The deletion is permanent.
	ClearAirdrops(ctx context.Context, category *Category) error

	// ListAirdrops returns airdrops regardless of publish state, optionally
	// restricted to one category.
	ListAirdrops(ctx context.Context, category *Category) ([]*Airdrop, error)
}

// Pinger is implemented by repositories that can report store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

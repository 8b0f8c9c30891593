package dropfeed

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the reader and admin operations of dropfeed
type Service interface {
	// Reader operations
	LatestPost(ctx context.Context) (*Post, error)
	ListAirdrops(ctx context.Context, category Category) ([]*Airdrop, error)

	// Admin operations. Callers authenticate before invoking them.
	UpsertPost(ctx context.Context, req UpsertPostRequest) (uuid.UUID, error)
	UpsertAirdrop(ctx context.Context, req UpsertAirdropRequest) (uuid.UUID, error)
	ClearAirdrops(ctx context.Context, req ClearAirdropsRequest) error

	// Admin listings, drafts included
	ListAllPosts(ctx context.Context) ([]*Post, error)
	ListAllAirdrops(ctx context.Context, category *Category) ([]*Airdrop, error)

	// Ping reports whether the underlying store is reachable
	Ping(ctx context.Context) error
}

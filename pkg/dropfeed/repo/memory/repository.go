package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/dropfeed/pkg/dropfeed"
)

// Repository implements dropfeed.PostRepository and dropfeed.AirdropRepository
// using in-memory storage
type Repository struct {
	mu       sync.RWMutex
	posts    map[uuid.UUID]*dropfeed.Post
	airdrops map[uuid.UUID]*dropfeed.Airdrop
	order    []uuid.UUID // post insertion order, for deterministic ties
	now      func() time.Time
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		posts:    make(map[uuid.UUID]*dropfeed.Post),
		airdrops: make(map[uuid.UUID]*dropfeed.Airdrop),
		now:      time.Now,
	}
}

// Post operations

func (r *Repository) LatestVisiblePost(ctx context.Context) (*dropfeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]*dropfeed.Post, 0, len(r.order))
	for _, id := range r.order {
		posts = append(posts, r.posts[id])
	}

	latest := dropfeed.LatestPost(posts)
	if latest == nil {
		return nil, nil
	}
	postCopy := *latest
	return &postCopy, nil
}

func (r *Repository) UpsertPost(ctx context.Context, p dropfeed.PostUpsert) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()

	if p.ID != nil {
		existing, ok := r.posts[*p.ID]
		if !ok {
			return uuid.Nil, dropfeed.ErrPostNotFound
		}
		existing.Title = p.Title
		existing.BodyMD = p.BodyMD
		if p.PublishedAt != nil {
			existing.PublishedAt = copyTime(p.PublishedAt)
		}
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	post := &dropfeed.Post{
		ID:          uuid.New(),
		Title:       p.Title,
		BodyMD:      p.BodyMD,
		IsPremium:   true,
		PublishedAt: copyTime(p.PublishedAt),
		UpdatedAt:   now,
	}
	r.posts[post.ID] = post
	r.order = append(r.order, post.ID)
	return post.ID, nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*dropfeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*dropfeed.Post, 0, len(r.posts))
	for _, id := range r.order {
		postCopy := *r.posts[id]
		result = append(result, &postCopy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// Airdrop operations

func (r *Repository) ListVisibleAirdrops(ctx context.Context, category dropfeed.Category) ([]*dropfeed.Airdrop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*dropfeed.Airdrop{}
	for _, a := range r.airdrops {
		if a.Category == category && dropfeed.AirdropVisible(a) {
			airdropCopy := *a
			result = append(result, &airdropCopy)
		}
	}
	dropfeed.SortAirdrops(result)
	return result, nil
}

func (r *Repository) UpsertAirdrop(ctx context.Context, a dropfeed.AirdropUpsert) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()

	if a.ID != nil {
		existing, ok := r.airdrops[*a.ID]
		if !ok {
			return uuid.Nil, dropfeed.ErrAirdropNotFound
		}
		applyAirdrop(existing, a)
		if a.Sort != nil {
			existing.Sort = *a.Sort
		}
		if a.PublishedAt != nil {
			existing.PublishedAt = copyTime(a.PublishedAt)
		}
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	airdrop := &dropfeed.Airdrop{
		ID:          uuid.New(),
		PublishedAt: copyTime(a.PublishedAt),
		UpdatedAt:   now,
	}
	applyAirdrop(airdrop, a)
	if a.Sort != nil {
		airdrop.Sort = *a.Sort
	}
	r.airdrops[airdrop.ID] = airdrop
	return airdrop.ID, nil
}

func (r *Repository) ClearAirdrops(ctx context.Context, category *dropfeed.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category == nil {
		r.airdrops = make(map[uuid.UUID]*dropfeed.Airdrop)
		return nil
	}
	for id, a := range r.airdrops {
		if a.Category == *category {
			delete(r.airdrops, id)
		}
	}
	return nil
}

func (r *Repository) ListAirdrops(ctx context.Context, category *dropfeed.Category) ([]*dropfeed.Airdrop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*dropfeed.Airdrop{}
	for _, a := range r.airdrops {
		if category != nil && a.Category != *category {
			continue
		}
		airdropCopy := *a
		result = append(result, &airdropCopy)
	}
	dropfeed.SortAirdrops(result)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Category < result[j].Category
	})
	return result, nil
}

// Ping always succeeds for the in-memory store.
func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

func applyAirdrop(dst *dropfeed.Airdrop, a dropfeed.AirdropUpsert) {
	dst.Category = a.Category
	dst.Name = a.Name
	dst.Subtitle = copyString(a.Subtitle)
	dst.Score = copyFloat(a.Score)
	dst.Amount = copyString(a.Amount)
	dst.TimeText = copyString(a.TimeText)
	dst.Badge = copyString(a.Badge)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

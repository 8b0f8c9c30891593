package dropfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	posts    PostRepository
	airdrops AirdropRepository
	now      func() time.Time
	logger   *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithPostRepository sets the post repository
func WithPostRepository(repo PostRepository) Option {
	return func(s *service) {
		s.posts = repo
	}
}

// WithAirdropRepository sets the airdrop repository
func WithAirdropRepository(repo AirdropRepository) Option {
	return func(s *service) {
		s.airdrops = repo
	}
}

// WithClock overrides the time source used for publish timestamps
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		now:    time.Now,
		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.posts == nil {
		return nil, fmt.Errorf("post %w", ErrRepositoryNotConfigured)
	}
	if s.airdrops == nil {
		return nil, fmt.Errorf("airdrop %w", ErrRepositoryNotConfigured)
	}

	return s, nil
}

func (s *service) LatestPost(ctx context.Context) (*Post, error) {
	post, err := s.posts.LatestVisiblePost(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest post: %w", err)
	}
	return post, nil
}

func (s *service) ListAirdrops(ctx context.Context, category Category) ([]*Airdrop, error) {
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	items, err := s.airdrops.ListVisibleAirdrops(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s airdrops: %w", category, err)
	}
	if items == nil {
		items = []*Airdrop{}
	}
	return items, nil
}

func (s *service) UpsertPost(ctx context.Context, req UpsertPostRequest) (uuid.UUID, error) {
	if err := ValidatePostWrite(req); err != nil {
		return uuid.Nil, err
	}

	id, err := s.posts.UpsertPost(ctx, PostUpsert{
		ID:          req.ID,
		Title:       req.Title,
		BodyMD:      req.BodyMD,
		PublishedAt: EffectivePublishedAt(req.Publish, s.now().UTC()),
	})
	if err != nil {
		return uuid.Nil, &WriteError{Resource: "post", ID: req.ID, Op: "upsert", Err: err}
	}

	s.logger.Info("Post saved", "post_id", id.String(), "created", req.ID == nil, "publish", isSet(req.Publish))
	return id, nil
}

func (s *service) UpsertAirdrop(ctx context.Context, req UpsertAirdropRequest) (uuid.UUID, error) {
	if err := ValidateAirdropWrite(req); err != nil {
		return uuid.Nil, err
	}

	badge := req.Badge
	if badge != nil && *badge == "" {
		badge = nil
	}

	id, err := s.airdrops.UpsertAirdrop(ctx, AirdropUpsert{
		ID:          req.ID,
		Category:    Category(req.Category),
		Name:        req.Name,
		Subtitle:    req.Subtitle,
		Score:       req.Score,
		Amount:      req.Amount,
		TimeText:    req.TimeText,
		Badge:       badge,
		Sort:        req.Sort,
		PublishedAt: EffectivePublishedAt(req.Publish, s.now().UTC()),
	})
	if err != nil {
		return uuid.Nil, &WriteError{Resource: "airdrop", ID: req.ID, Op: "upsert", Err: err}
	}

	s.logger.Info("Airdrop saved", "airdrop_id", id.String(), "category", req.Category, "created", req.ID == nil)
	return id, nil
}

func (s *service) ClearAirdrops(ctx context.Context, req ClearAirdropsRequest) error {
	scope := clearScope(req)
	if err := s.airdrops.ClearAirdrops(ctx, scope); err != nil {
		return &WriteError{Resource: "airdrop", Op: "clear", Err: err}
	}

	if scope == nil {
		s.logger.Warn("Cleared all airdrops")
	} else {
		s.logger.Warn("Cleared airdrops", "category", string(*scope))
	}
	return nil
}

func (s *service) ListAllPosts(ctx context.Context) ([]*Post, error) {
	return s.posts.ListPosts(ctx)
}

func (s *service) ListAllAirdrops(ctx context.Context, category *Category) ([]*Airdrop, error) {
	if category != nil && !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	return s.airdrops.ListAirdrops(ctx, category)
}

func (s *service) Ping(ctx context.Context) error {
	var errs []error
	if p, ok := s.posts.(Pinger); ok {
		errs = append(errs, p.Ping(ctx))
	}
	if p, ok := s.airdrops.(Pinger); ok && any(s.airdrops) != any(s.posts) {
		errs = append(errs, p.Ping(ctx))
	}
	return errors.Join(errs...)
}

func isSet(b *bool) bool {
	return b != nil && *b
}

package api

import (
	"time"

	"github.com/tendant/dropfeed/pkg/dropfeed"
)

// UpsertContentRequest is the request body for POST /admin/content
type UpsertContentRequest struct {
	ID      *string `json:"id,omitempty"`
	Title   string  `json:"title"`
	BodyMD  string  `json:"body_md"`
	Publish *bool   `json:"publish,omitempty"`
}

// PreviewContentRequest is the request body for POST /admin/content/preview
type PreviewContentRequest struct {
	BodyMD string `json:"body_md"`
}

// UpsertAirdropRequest is the request body for POST /admin/airdrop
type UpsertAirdropRequest struct {
	ID       *string  `json:"id,omitempty"`
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Subtitle *string  `json:"subtitle,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Amount   *string  `json:"amount,omitempty"`
	TimeText *string  `json:"time_text,omitempty"`
	Badge    *string  `json:"badge,omitempty"`
	Sort     *int     `json:"sort,omitempty"`
	Publish  *bool    `json:"publish,omitempty"`
}

// ClearAirdropsRequest is the request body for POST /admin/airdrop/clear
type ClearAirdropsRequest struct {
	Category *string `json:"category,omitempty"`
}

// IDResponse carries the identifier written by an upsert; null when an
// update matched nothing.
type IDResponse struct {
	ID *string `json:"id"`
}

// OKResponse is returned by health checks and clear
type OKResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the body of every error
type ErrorResponse struct {
	Error string `json:"error"`
}

// LatestItem is the reader-facing view of a post
type LatestItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Excerpt     string    `json:"excerpt"`
}

// LatestResponse is the response body for GET /content/latest
type LatestResponse struct {
	Item *LatestItem `json:"item"`
}

// AirdropItem is the reader-facing view of an airdrop
type AirdropItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Subtitle *string  `json:"subtitle"`
	Score    *float64 `json:"score"`
	Amount   *string  `json:"amount"`
	TimeText *string  `json:"time_text"`
	Badge    *string  `json:"badge"`
}

// AirdropListResponse is the response body for GET /airdrops/{category}
type AirdropListResponse struct {
	Items []AirdropItem `json:"items"`
}

// PreviewResponse is the response body for POST /admin/content/preview
type PreviewResponse struct {
	HTML string `json:"html"`
}

func toLatestItem(p *dropfeed.Post) *LatestItem {
	if p == nil || p.PublishedAt == nil {
		return nil
	}
	return &LatestItem{
		ID:          p.ID.String(),
		Title:       p.Title,
		PublishedAt: *p.PublishedAt,
		Excerpt:     dropfeed.Excerpt(p.BodyMD),
	}
}

func toAirdropItems(items []*dropfeed.Airdrop) []AirdropItem {
	resp := make([]AirdropItem, 0, len(items))
	for _, a := range items {
		resp = append(resp, AirdropItem{
			ID:       a.ID.String(),
			Name:     a.Name,
			Subtitle: a.Subtitle,
			Score:    a.Score,
			Amount:   a.Amount,
			TimeText: a.TimeText,
			Badge:    a.Badge,
		})
	}
	return resp
}

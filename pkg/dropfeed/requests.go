package dropfeed

import "github.com/google/uuid"

// Request DTOs. Optional fields are pointers; nil means the caller did not
// supply the field.

// UpsertPostRequest creates a post (nil ID) or updates an existing one.
type UpsertPostRequest struct {
	ID      *uuid.UUID
	Title   string
	BodyMD  string
	Publish *bool
}

// UpsertAirdropRequest creates an airdrop (nil ID) or updates an existing one.
// Category is kept raw so that validation can tell "missing" from "unknown".
type UpsertAirdropRequest struct {
	ID       *uuid.UUID
	Category string
	Name     string
	Subtitle *string
	Score    *float64
	Amount   *string
	TimeText *string
	Badge    *string
	Sort     *int
	Publish  *bool
}

// ClearAirdropsRequest scopes a clear to one category. A nil or unknown
// Category clears every airdrop.
type ClearAirdropsRequest struct {
	Category *string
}

package dropfeed

// ValidatePostWrite checks the required fields of a post write.
func ValidatePostWrite(req UpsertPostRequest) error {
	if req.Title == "" || req.BodyMD == "" {
		return &ValidationError{Message: "title/body_md required"}
	}
	return nil
}

// ValidateAirdropWrite checks the required fields and category of an
// airdrop write.
func ValidateAirdropWrite(req UpsertAirdropRequest) error {
	if req.Category == "" || req.Name == "" {
		return &ValidationError{Message: "category/name required"}
	}
	if !Category(req.Category).IsValid() {
		return &ValidationError{Message: ErrInvalidCategory.Error()}
	}
	return nil
}

// clearScope maps a clear request to the category it deletes. Anything
// other than a known category widens the clear to every airdrop.
func clearScope(req ClearAirdropsRequest) *Category {
	if req.Category == nil {
		return nil
	}
	c := Category(*req.Category)
	if !c.IsValid() {
		return nil
	}
	return &c
}

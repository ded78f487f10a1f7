package domain

// DefaultPageSize is applied when the caller omits pagination entirely.
// Some legacy call paths treated missing parameters as "return everything";
// this service always paginates with an explicit default instead.
const DefaultPageSize = 10

// Page is an offset/limit window over an ordered result set.
type Page struct {
	From int
	Size int
}

// NewPage builds a pagination window from optional caller parameters.
// A missing offset defaults to 0 and a missing size to DefaultPageSize.
// A non-positive size or negative offset is rejected as a validation error.
func NewPage(from, size *int) (Page, error) {
	p := Page{From: 0, Size: DefaultPageSize}
	if from != nil {
		p.From = *from
	}
	if size != nil {
		p.Size = *size
	}
	if p.Size <= 0 || p.From < 0 {
		return Page{}, NewValidationError("page size must be positive and offset non-negative")
	}
	return p, nil
}

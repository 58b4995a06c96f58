package model

// Repository is a source-code repository connected to the review product.
// Repositories are fetched from the backend and never mutated locally.
type Repository struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
	Owner       string  `json:"owner"`
	Private     bool    `json:"private"`
}

// DescriptionOr returns the repository description, or fallback when the
// backend reported none.
func (r Repository) DescriptionOr(fallback string) string {
	if r.Description == nil || *r.Description == "" {
		return fallback
	}
	return *r.Description
}

// Visibility returns "Private" or "Public".
func (r Repository) Visibility() string {
	if r.Private {
		return "Private"
	}
	return "Public"
}

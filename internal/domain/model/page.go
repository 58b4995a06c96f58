package model

// RepositoryPage is one response of the repository listing endpoint.
// TotalPages is zero when the backend omitted it (unpaginated request).
type RepositoryPage struct {
	Repositories []Repository `json:"repositories"`
	Total        int          `json:"total"`
	TotalPages   int          `json:"totalPages,omitempty"`
}

// Pagination describes the page a server-paginated response belongs to.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PullRequestPage is one response of the PR summary endpoint.
type PullRequestPage struct {
	Data       []PullRequestSummary `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

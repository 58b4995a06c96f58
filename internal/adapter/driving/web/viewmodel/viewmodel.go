// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// NavViewModel holds the data the page chrome needs.
type NavViewModel struct {
	Title     string
	Active    string // "dashboard", "repos", "review", "profile"
	Username  string
	AvatarURL string
	CSRFToken string
}

// LoginViewModel holds the sign-in page state.
type LoginViewModel struct {
	Expired    bool
	Error      string
	Configured bool
}

// PageLinkViewModel is one entry of a page-number bar.
type PageLinkViewModel struct {
	Number   int
	Ellipsis bool
	Current  bool
	URL      string
}

// PagerViewModel holds a rendered page-number bar.
type PagerViewModel struct {
	Page       int
	PageSize   int
	PageSizes  []int
	Total      int
	TotalPages int
	PrevURL    string // Empty on the first page.
	NextURL    string // Empty on the last page.
	Links      []PageLinkViewModel
	Target     string // htmx target for page navigation.
}

// StatCardViewModel is one dashboard stat card.
type StatCardViewModel struct {
	Label string
	Value int
}

// PRRowViewModel is one row of the PR summary table.
type PRRowViewModel struct {
	Name           string
	URL            string
	PullRequestURL string
	Commits        int
	Comments       int
	ReviewComments int
	UpdatedAt      string
}

// DashboardViewModel holds the PR dashboard.
type DashboardViewModel struct {
	Name  string
	From  string
	To    string
	Stats []StatCardViewModel
	Rows  []PRRowViewModel
	Pager PagerViewModel
	Error string
}

// RepoRowViewModel is one repository card.
type RepoRowViewModel struct {
	ID          int64
	Name        string
	FullName    string
	Description string
	Visibility  string
	HTMLURL     string
	SettingsURL string
}

// RepoListViewModel holds the filtered repository list.
type RepoListViewModel struct {
	Filter string
	Rows   []RepoRowViewModel
	Pager  PagerViewModel
	Error  string
}

// FieldViewModel is one rendered settings field.
type FieldViewModel struct {
	Name        string
	Label       string
	Description string
	Placeholder string
	Input       string // "checkbox", "text", "number", "select"
	Value       string
	Checked     bool
	IsNull      bool
	Options     []string
	Suggestions []string
	ActionURL   string
}

// FieldGroupViewModel is a titled group of fields within a section.
type FieldGroupViewModel struct {
	Title  string
	Fields []FieldViewModel
}

// TabViewModel is one settings section tab.
type TabViewModel struct {
	Key    string
	Title  string
	URL    string
	Active bool
}

// SettingsStatusViewModel is the save-state strip of the settings form.
type SettingsStatusViewModel struct {
	Dirty  bool
	Saved  bool
	Error  string
	Failed []string // Sections that failed to save.
}

// SettingsViewModel holds the tabbed settings view.
type SettingsViewModel struct {
	RepositoryID   int64
	RepositoryName string
	Section        string
	SectionTitle   string
	Description    string
	Tabs           []TabViewModel
	Groups         []FieldGroupViewModel
	Status         SettingsStatusViewModel
	SaveURL        string
	ResetURL       string
	ReloadURL      string
}

// ReviewViewModel holds the code review form and its result.
type ReviewViewModel struct {
	Code        string
	Source      string
	Available   bool
	CanFetch    bool
	ResultHTML  string
	Headings    []string
	SourceLabel string
	Error       string
}

// ProfileViewModel holds the signed-in user's profile.
type ProfileViewModel struct {
	ID        int64
	Username  string
	Email     string
	AvatarURL string
	SignedIn  string
}

// ErrorViewModel holds a full-page error.
type ErrorViewModel struct {
	Status  int
	Message string
}

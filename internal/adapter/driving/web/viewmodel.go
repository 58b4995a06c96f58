package web

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	vm "github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// toPagerViewModel builds the page-number bar for path. base holds the
// query parameters every page link keeps (filters, page size).
func toPagerViewModel(path, target string, base url.Values, page, size, total, totalPages int, links []application.PageLink) vm.PagerViewModel {
	pageURL := func(n int) string {
		q := url.Values{}
		for k, v := range base {
			if len(v) > 0 && v[0] != "" {
				q[k] = v
			}
		}
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}

	p := vm.PagerViewModel{
		Page:       page,
		PageSize:   size,
		PageSizes:  application.PageSizes,
		Total:      total,
		TotalPages: totalPages,
		Target:     target,
	}
	if page > 1 {
		p.PrevURL = pageURL(page - 1)
	}
	if page < totalPages {
		p.NextURL = pageURL(page + 1)
	}
	for _, l := range links {
		link := vm.PageLinkViewModel{Number: l.Number, Ellipsis: l.Ellipsis, Current: l.Current}
		if !l.Ellipsis {
			link.URL = pageURL(l.Number)
		}
		p.Links = append(p.Links, link)
	}
	return p
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// toDashboardViewModel converts a fetched dashboard page. err, when set,
// is shown inline above empty results.
func toDashboardViewModel(q application.PRQuery, dash application.PRDashboard, err error) vm.DashboardViewModel {
	v := vm.DashboardViewModel{
		Name: q.Name,
		From: formatDate(q.From),
		To:   formatDate(q.To),
		Stats: []vm.StatCardViewModel{
			{Label: "Pull requests", Value: dash.Totals.PullRequests},
			{Label: "Commits", Value: dash.Totals.Commits},
			{Label: "Comments", Value: dash.Totals.Comments},
			{Label: "Review comments", Value: dash.Totals.ReviewComments},
		},
	}
	if err != nil {
		v.Error = "Failed to load pull requests: " + errorMessage(err)
	}

	for _, s := range dash.Page.Data {
		row := vm.PRRowViewModel{
			Name:           s.Name,
			URL:            s.URL,
			PullRequestURL: s.PullRequestURL,
			Commits:        s.Commits,
			Comments:       s.Comments,
			ReviewComments: s.ReviewComments,
		}
		if !s.UpdatedAt.IsZero() {
			row.UpdatedAt = s.UpdatedAt.Format("Jan 2, 2006")
		}
		v.Rows = append(v.Rows, row)
	}

	base := url.Values{
		"name":  {q.Name},
		"from":  {v.From},
		"to":    {v.To},
		"limit": {strconv.Itoa(q.Limit)},
	}
	p := dash.Page.Pagination
	v.Pager = toPagerViewModel("/", "#pr-results", base, max(p.Page, 1), q.Limit, p.Total, p.TotalPages, dash.Links)
	return v
}

// toRepoListViewModel converts one page of the filtered repository list.
func toRepoListViewModel(filter string, l application.RepositoryListing, size int, err error) vm.RepoListViewModel {
	v := vm.RepoListViewModel{Filter: filter}
	if err != nil {
		v.Error = "Failed to load repositories: " + errorMessage(err)
	}
	for _, r := range l.Repositories {
		v.Rows = append(v.Rows, toRepoRowViewModel(r))
	}

	if l.PageSize != 0 {
		size = l.PageSize
	}
	base := url.Values{"q": {filter}, "limit": {strconv.Itoa(size)}}
	v.Pager = toPagerViewModel("/repos", "#repo-list", base, max(l.Page, 1), size, l.Total, l.TotalPages, l.Links)
	return v
}

func toRepoRowViewModel(r model.Repository) vm.RepoRowViewModel {
	name := r.FullName
	if name == "" {
		name = r.Name
	}
	return vm.RepoRowViewModel{
		ID:          r.ID,
		Name:        r.Name,
		FullName:    name,
		Description: r.DescriptionOr("No description provided."),
		Visibility:  r.Visibility(),
		HTMLURL:     r.HTMLURL,
		SettingsURL: fmt.Sprintf("/repos/%d/settings", r.ID),
	}
}

// toSettingsViewModel renders the editor's values for the active section.
func toSettingsViewModel(repo model.Repository, ed *settings.Editor, active settings.Section, status vm.SettingsStatusViewModel) vm.SettingsViewModel {
	id := ed.RepositoryID()
	pagePath := fmt.Sprintf("/repos/%d/settings", id)
	actionPath := fmt.Sprintf("/app/repos/%d/settings", id)
	tabQuery := "?tab=" + url.QueryEscape(string(active))

	status.Dirty = status.Dirty || ed.Dirty()
	status.Saved = status.Error == "" && ed.ShowSaved(time.Now())

	v := vm.SettingsViewModel{
		RepositoryID:   id,
		RepositoryName: repo.FullName,
		Section:        string(active),
		SectionTitle:   active.Title(),
		Description:    active.Description(),
		Status:         status,
		SaveURL:        actionPath + "/save" + tabQuery,
		ResetURL:       actionPath + "/reset" + tabQuery,
		ReloadURL:      pagePath + tabQuery,
	}
	if v.RepositoryName == "" {
		v.RepositoryName = repo.Name
	}

	for _, s := range settings.Sections() {
		v.Tabs = append(v.Tabs, vm.TabViewModel{
			Key:    string(s),
			Title:  s.Title(),
			URL:    pagePath + "?tab=" + url.QueryEscape(string(s)),
			Active: s == active,
		})
	}

	values := ed.Section(active)
	groups := make(map[string]*vm.FieldGroupViewModel)
	for _, g := range settings.Groups(active) {
		v.Groups = append(v.Groups, vm.FieldGroupViewModel{Title: g})
	}
	for i := range v.Groups {
		groups[v.Groups[i].Title] = &v.Groups[i]
	}
	for _, f := range settings.Schema(active) {
		g := groups[f.Group]
		g.Fields = append(g.Fields, toFieldViewModel(actionPath, active, f, values))
	}
	return v
}

func toFieldViewModel(actionPath string, s settings.Section, f settings.Field, values settings.Values) vm.FieldViewModel {
	fv := vm.FieldViewModel{
		Name:        f.Name,
		Label:       f.Label,
		Description: f.Description,
		Placeholder: f.Placeholder,
		Suggestions: f.Suggestions,
		ActionURL:   fmt.Sprintf("%s/%s/%s", actionPath, s, f.Name),
	}

	switch f.Kind {
	case settings.KindBool:
		fv.Input = "checkbox"
		fv.Checked = values.Bool(f.Name)
	case settings.KindEnum:
		fv.Input = "select"
		fv.Options = f.Options
		fv.Value = values.String(f.Name)
	case settings.KindInt:
		fv.Input = "number"
		fv.Value = strconv.Itoa(values.Int(f.Name))
	default:
		fv.Input = "text"
		fv.Value = values.String(f.Name)
		fv.IsNull = values.IsNull(f.Name)
	}
	return fv
}

// toReviewViewModel converts a finished review or its failure.
func toReviewViewModel(res application.ReviewResult, err error) vm.ReviewViewModel {
	v := vm.ReviewViewModel{Available: true}
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.ResultHTML = res.HTML
	v.Headings = res.Document.Headings()
	if res.Source != nil {
		v.SourceLabel = res.Source.String()
	}
	return v
}

func toProfileViewModel(sess *application.Session) vm.ProfileViewModel {
	u, _ := sess.User()
	v := vm.ProfileViewModel{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
	if t := sess.CreatedAt(); !t.IsZero() {
		v.SignedIn = t.Local().Format("Jan 2, 2006 15:04")
	}
	return v
}

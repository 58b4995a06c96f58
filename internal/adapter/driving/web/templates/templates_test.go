package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vm "github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/viewmodel"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestErrorPanel(t *testing.T) {
	t.Run("escapes message and details", func(t *testing.T) {
		out := render(t, ErrorPanel("<b>boom</b>", "Tools: status 500"))
		assert.Contains(t, out, `class="error-panel"`)
		assert.Contains(t, out, "&lt;b&gt;boom&lt;/b&gt;")
		assert.Contains(t, out, "<li>Tools: status 500</li>")
		assert.NotContains(t, out, "<b>boom")
	})

	t.Run("empty message renders nothing", func(t *testing.T) {
		assert.Empty(t, render(t, ErrorPanel("")))
	})
}

func TestPager(t *testing.T) {
	p := vm.PagerViewModel{
		Page:       2,
		TotalPages: 3,
		PageSize:   10,
		Target:     "#pr-results",
		PrevURL:    "/?limit=10&name=pay&page=1",
		NextURL:    "/?limit=10&name=pay&page=3",
		Links: []vm.PageLinkViewModel{
			{Number: 1, URL: "/?limit=10&name=pay&page=1"},
			{Number: 2, URL: "/?limit=10&name=pay&page=2", Current: true},
			{Number: 3, URL: "/?limit=10&name=pay&page=3"},
		},
	}

	out := render(t, Pager(p))
	assert.Contains(t, out, `href="/?limit=10&amp;name=pay&amp;page=3"`)
	assert.Contains(t, out, `hx-target="#pr-results"`)
	assert.Contains(t, out, `<span class="current" aria-current="page">2</span>`)
	assert.Contains(t, out, "Page 2 of 3")
}

func TestPager_SinglePageRendersNothing(t *testing.T) {
	assert.Empty(t, render(t, Pager(vm.PagerViewModel{Page: 1, TotalPages: 1})))
}

func TestLayout(t *testing.T) {
	nav := vm.NavViewModel{Title: "Dashboard", Username: "octo", Active: "dashboard", CSRFToken: "tok"}
	out := render(t, Layout(nav, ErrorPage(vm.ErrorViewModel{Status: 404, Message: "missing"})))
	assert.Contains(t, out, "<!doctype html>")
	assert.Contains(t, out, "<title>Dashboard | CodeGuardian</title>")
	assert.Contains(t, out, `<li class="active"><a href="/">Dashboard</a></li>`)
	assert.Contains(t, out, `name="csrf_token" value="tok"`)
	assert.Contains(t, out, "<h1>404</h1>")
}

func TestLayout_NoUsernameHidesNav(t *testing.T) {
	out := render(t, Layout(vm.NavViewModel{Title: "Sign in"}, ErrorPanel("")))
	assert.NotContains(t, out, `class="topnav"`)
}

func TestPageButton_UnsafeURLIsSanitized(t *testing.T) {
	out := render(t, pageButton(vm.PagerViewModel{}, "Next", "javascript:alert(1)", false))
	assert.Contains(t, out, `href="about:invalid#TemplFailedSanitizationURL"`)
}

func TestSettingsStatus(t *testing.T) {
	tests := []struct {
		name   string
		status vm.SettingsStatusViewModel
		want   string
		absent string
	}{
		{name: "dirty", status: vm.SettingsStatusViewModel{Dirty: true}, want: "Unsaved changes", absent: "Settings saved"},
		{name: "saved", status: vm.SettingsStatusViewModel{Saved: true}, want: "Settings saved", absent: "Unsaved changes"},
		{name: "failed", status: vm.SettingsStatusViewModel{Dirty: true, Error: "Failed to save settings"}, want: "error-panel", absent: "Settings saved"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, SettingsStatus(tt.status))
			assert.Contains(t, out, `id="settings-status"`)
			assert.Contains(t, out, tt.want)
			assert.NotContains(t, out, tt.absent)
		})
	}
}

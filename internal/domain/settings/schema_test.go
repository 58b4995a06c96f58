package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

func TestSections_CanonicalOrderAndCount(t *testing.T) {
	sections := settings.Sections()
	require.Len(t, sections, 8)
	assert.Equal(t, settings.General, sections[0])
	assert.Equal(t, settings.Tools, sections[7])
}

func TestParseSection(t *testing.T) {
	s, err := settings.ParseSection("knowledge_base")
	require.NoError(t, err)
	assert.Equal(t, settings.KnowledgeBase, s)

	_, err = settings.ParseSection("knowledgeBase")
	require.ErrorIs(t, err, settings.ErrUnknownSection)
}

func TestSchema_FieldNamesUniquePerSection(t *testing.T) {
	for _, s := range settings.Sections() {
		seen := map[string]bool{}
		for _, f := range settings.Schema(s) {
			assert.False(t, seen[f.Name], "duplicate field %s.%s", s, f.Name)
			seen[f.Name] = true
			assert.NotEmpty(t, f.Label, "field %s.%s has no label", s, f.Name)
		}
	}
}

func TestSchema_DefaultsMatchKinds(t *testing.T) {
	for _, s := range settings.Sections() {
		for _, f := range settings.Schema(s) {
			_, err := f.Coerce(f.Default)
			assert.NoError(t, err, "default of %s.%s", s, f.Name)
		}
	}
}

func TestSchema_NoServerOwnedFields(t *testing.T) {
	for _, s := range settings.Sections() {
		for _, name := range settings.ServerOwnedFields {
			_, err := settings.Lookup(s, name)
			assert.ErrorIs(t, err, settings.ErrUnknownField)
		}
	}
}

func TestLookup_UnknownField(t *testing.T) {
	_, err := settings.Lookup(settings.General, "does_not_exist")
	require.ErrorIs(t, err, settings.ErrUnknownField)

	_, err = settings.Lookup(settings.Section("bogus"), "poem")
	require.ErrorIs(t, err, settings.ErrUnknownSection)
}

func TestGroups(t *testing.T) {
	assert.Equal(t, []string{"Sources", "Integrations"}, settings.Groups(settings.KnowledgeBase))
	assert.Equal(t, []string{""}, settings.Groups(settings.General))
}

func TestFieldCoerce(t *testing.T) {
	jira, err := settings.Lookup(settings.Chat, "jira")
	require.NoError(t, err)
	learnings, err := settings.Lookup(settings.KnowledgeBase, "learnings")
	require.NoError(t, err)
	timeout, err := settings.Lookup(settings.Tools, "timeout_ms")
	require.NoError(t, err)
	tone, err := settings.Lookup(settings.General, "tone_instructions")
	require.NoError(t, err)

	tests := []struct {
		name    string
		field   settings.Field
		in      any
		want    any
		wantErr bool
	}{
		{name: "enum raw string", field: jira, in: "ENABLED", want: "ENABLED"},
		{name: "enum typed constant", field: jira, in: model.ActiveDisabled, want: "DISABLED"},
		{name: "enum not a member", field: jira, in: "MAYBE", wantErr: true},
		{name: "scope status rejected for active field", field: jira, in: model.ScopeEnabled, wantErr: true},
		{name: "active status rejected for scope field", field: learnings, in: model.ActiveAuto, wantErr: true},
		{name: "int from float64", field: timeout, in: float64(1000), want: 1000},
		{name: "int rejects fraction", field: timeout, in: 1.5, wantErr: true},
		{name: "int rejects negative", field: timeout, in: -1, wantErr: true},
		{name: "int rejects string", field: timeout, in: "10", wantErr: true},
		{name: "nullable nil", field: tone, in: nil, want: nil},
		{name: "nullable string", field: tone, in: "be kind", want: "be kind"},
		{name: "nullable rejects bool", field: tone, in: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.Coerce(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, settings.ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldParseFormValue(t *testing.T) {
	poem, err := settings.Lookup(settings.Review, "poem")
	require.NoError(t, err)
	tone, err := settings.Lookup(settings.General, "tone_instructions")
	require.NoError(t, err)
	timeout, err := settings.Lookup(settings.Tools, "timeout_ms")
	require.NoError(t, err)

	v, err := poem.ParseFormValue("on")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = poem.ParseFormValue("false")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = poem.ParseFormValue("sometimes")
	require.ErrorIs(t, err, settings.ErrInvalidValue)

	v, err = tone.ParseFormValue("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = timeout.ParseFormValue(" 3000 ")
	require.NoError(t, err)
	assert.Equal(t, 3000, v)
}

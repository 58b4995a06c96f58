package settings

import (
	"errors"
	"fmt"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

// ReviewLanguages are the languages offered for general.review_language.
var ReviewLanguages = []string{"en", "es", "fr", "de", "vi", "ja", "ko", "zh"}

// Schema returns the field descriptors of a section in display order.
// The returned slice must not be modified.
func Schema(s Section) []Field {
	return schema[s]
}

// Lookup returns the descriptor for a field of a section.
func Lookup(s Section, name string) (Field, error) {
	fields, ok := schema[s]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownSection, string(s))
	}
	for _, f := range fields {
		if f.Name == name {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, s, name)
}

// Groups returns the distinct field groups of a section in display order.
// Sections without groups return a single empty group name.
func Groups(s Section) []string {
	var groups []string
	seen := make(map[string]bool)
	for _, f := range schema[s] {
		if !seen[f.Group] {
			seen[f.Group] = true
			groups = append(groups, f.Group)
		}
	}
	return groups
}

func boolField(name, label string, def bool, description string) Field {
	return Field{Name: name, Kind: KindBool, Default: def, Label: label, Description: description}
}

func textField(name, label, placeholder, description string) Field {
	return Field{Name: name, Kind: KindString, Default: "", Label: label, Placeholder: placeholder, Description: description}
}

func nullableField(name, label, placeholder, description string) Field {
	return Field{Name: name, Kind: KindNullableString, Default: nil, Label: label, Placeholder: placeholder, Description: description}
}

func enumField[T ~string](name, label string, enum Enum, def T, options []T) Field {
	opts := make([]string, len(options))
	for i, o := range options {
		opts[i] = string(o)
	}
	return Field{Name: name, Kind: KindEnum, Enum: enum, Options: opts, Default: string(def), Label: label}
}

func grouped(group string, fields ...Field) []Field {
	for i := range fields {
		fields[i].Group = group
	}
	return fields
}

func concat(parts ...[]Field) []Field {
	var out []Field
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func nonNegative(v any) error {
	if n, ok := v.(int); ok && n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

var schema = map[Section][]Field{
	General: {
		{
			Name: "review_language", Kind: KindString, Default: "en", Label: "Review Language",
			Suggestions: ReviewLanguages,
		},
		nullableField("tone_instructions", "Tone Instructions", "e.g., Be formal and professional.", ""),
		boolField("early_access", "Early Access", false, ""),
		boolField("enable_free_tier", "Enable Free Tier", true, ""),
	},

	AutoReview: {
		boolField("automatic_review", "Automatic Review", true, "Enable automatic reviews on new pull requests."),
		boolField("automatic_incremental_review", "Automatic Incremental Review", false, "Review new commits on existing pull requests."),
		nullableField("ignore_title_keywords", "Ignore Title Keywords", "WIP, DRAFT", "Comma-separated keywords in PR titles to ignore."),
		nullableField("labels", "Labels", "needs-review", "Only review PRs with these comma-separated labels."),
		boolField("drafts", "Review Drafts", false, "Also review pull requests that are in a draft state."),
		nullableField("base_branches", "Base Branches", "main, develop", "Only review PRs targeting these comma-separated branches."),
	},

	Chat: {
		boolField("auto_reply", "Auto Reply", true, "Automatically reply to comments and questions."),
		boolField("create_issue", "Create Issue", true, "Allow creating issues from chat commands."),
		enumField("jira", "Jira Integration", EnumActiveStatus, model.ActiveAuto, model.ActiveStatuses()),
		enumField("linear", "Linear Integration", EnumActiveStatus, model.ActiveDisabled, model.ActiveStatuses()),
	},

	CodeGeneration: {
		nullableField("code_generation_language", "Code Generation Language", "e.g., TypeScript, Python", ""),
		nullableField("path_instructions", "Path Instructions", "e.g., Place new components in src/components", "Instructions for where to place generated files."),
		nullableField("unit_test_generation", "Unit Test Generation Framework", "e.g., Jest, Pytest, JUnit", "Specify the framework for generating unit tests."),
	},

	FinishingTouches: {
		boolField("docstrings", "Generate Docstrings", true, "Automatically generate missing docstrings for functions and classes."),
		boolField("unit_tests", "Generate Unit Tests", true, "Automatically generate missing unit tests for new code."),
	},

	KnowledgeBase: concat(
		grouped("Sources",
			boolField("out_put", "Enable Knowledge Output", false, "Allow the model to generate and store learnings."),
			boolField("web_search", "Enable Web Search", true, "Allow the model to search the web for context."),
			enumField("learnings", "Learnings Scope", EnumScopeStatus, model.ScopeAuto, model.ScopeStatuses()),
			enumField("issues", "Issues Scope", EnumScopeStatus, model.ScopeEnabled, model.ScopeStatuses()),
			enumField("pull_requests", "Pull Requests Scope", EnumScopeStatus, model.ScopeAuto, model.ScopeStatuses()),
		),
		grouped("Integrations",
			nullableField("jira_project_keys", "Jira Project Keys", "PROJ,CORE", "Comma-separated Jira project keys to learn from."),
			enumField("linear", "Linear Integration", EnumActiveStatus, model.ActiveAuto, model.ActiveStatuses()),
			nullableField("linear_team_keys", "Linear Team Keys", "ENG,DESIGN", "Comma-separated Linear team keys to learn from."),
		),
	),

	Review: concat(
		grouped("Content & Summaries",
			enumField("profile", "Profile", EnumProfileSetting, model.ProfileBalanced, model.ProfileSettings()),
			nullableField("path_instructions", "Path Instructions", "e.g., Ignore all files in /dist", ""),
			boolField("high_level_summary", "High-Level Summary", true, ""),
			nullableField("high_level_summary_placeholder", "High-Level Summary Placeholder", "", ""),
			boolField("high_level_summary_in_walkthrough", "High-Level Summary in Walkthrough", false, ""),
			nullableField("auto_title_placeholder", "Auto Title Placeholder", "", ""),
			nullableField("auto_title_instructions", "Auto Title Instructions", "", ""),
			boolField("changed_files_summary", "Changed Files Summary", true, ""),
			boolField("sequence_diagrams", "Sequence Diagrams", true, ""),
			boolField("assess_linked_issues", "Assess Linked Issues", true, ""),
			boolField("related_issues", "Related Issues", true, ""),
			boolField("related_prs", "Related PRs", true, ""),
			boolField("poem", "Poem", false, "Include a fun poem in the review summary."),
		),
		grouped("Automation & Workflow",
			boolField("requests_changers_workflow", "Requests Changes Workflow", false, ""),
			boolField("review_status", "Review Status", true, ""),
			boolField("commit_status", "Commit Status", true, ""),
			boolField("fail_commit_status", "Fail Commit Status", false, ""),
			boolField("collapse_walkthrough", "Collapse Walkthrough", false, ""),
			boolField("suggested_labels", "Suggested Labels", true, ""),
			boolField("auto_apply_labels", "Auto Apply Labels", false, ""),
			boolField("suggested_reviewers", "Suggested Reviewers", true, ""),
			boolField("auto_assign_reviewers", "Auto Assign Reviewers", false, ""),
			nullableField("labeling_instructions", "Labeling Instructions", "", ""),
			nullableField("path_filters", "Path Filters", "e.g., src/**/*.js, !**/__tests__/**", ""),
			boolField("abort_on_close", "Abort on Close", false, ""),
		),
	),

	Tools: concat(
		grouped("General",
			boolField("enable_github_checks", "GitHub Checks", true, "Report tool findings as GitHub checks."),
			Field{
				Name: "timeout_ms", Kind: KindInt, Default: 600000, Label: "Timeout (ms)",
				Description: "Maximum time a single tool may run.", Validate: nonNegative,
			},
		),
		grouped("LanguageTool",
			boolField("enable_language_tool", "Enable LanguageTool", false, ""),
			textField("enabled_rules", "Enabled Rules", "", ""),
			textField("disabled_rules", "Disabled Rules", "", ""),
			textField("enabled_categories", "Enabled Categories", "", ""),
			textField("disabled_categories", "Disabled Categories", "", ""),
			boolField("enabled_only", "Enabled Only", false, ""),
			enumField("language_level", "Language Level", EnumToolLanguageLevel, model.LanguageLevelDefault, model.ToolLanguageLevels()),
		),
		grouped("ast-grep",
			textField("rule_dirs", "Rule Directories", "", ""),
			textField("util_dirs", "Util Directories", "", ""),
			boolField("essential_rules", "Essential Rules", false, ""),
			textField("packages", "Packages", "", ""),
		),
		grouped("Linters",
			boolField("enable_golangci_lint", "golangci-lint", false, ""),
			textField("config_file", "golangci-lint Config File", "", ""),
			boolField("enable_php_stan", "PHPStan", false, ""),
			enumField("php_stan_level", "PHPStan Level", EnumPhpStanLevel, model.PhpStanLevel5, model.PhpStanLevels()),
			boolField("enable_swift_lint", "SwiftLint", false, ""),
			textField("config_file_swift_lint", "SwiftLint Config File", "", ""),
			boolField("enable_detekt", "detekt", false, ""),
			textField("config_file_detekt", "detekt Config File", "", ""),
			boolField("enable_semgrep", "Semgrep", false, ""),
			textField("config_file_semgrep", "Semgrep Config File", "", ""),
			boolField("enable_shell_check", "ShellCheck", false, ""),
			boolField("enable_ruff", "Ruff", true, ""),
			boolField("enable_markdownlint", "markdownlint", true, ""),
			boolField("enable_biome", "Biome", false, ""),
			boolField("enable_hadolint", "Hadolint", false, ""),
			boolField("enable_yaml_lint", "YAMLlint", true, ""),
			boolField("enable_gitleaks", "Gitleaks", false, ""),
			boolField("enable_checkov", "Checkov", false, ""),
			boolField("enable_es_lint", "ESLint", true, ""),
			boolField("enable_rubo_cop", "RuboCop", false, ""),
			boolField("enable_buf", "Buf", false, ""),
			boolField("enable_regal", "Regal", false, ""),
			boolField("enable_actionlint", "actionlint", false, ""),
			boolField("enable_cpp_check", "Cppcheck", false, ""),
			boolField("enable_circle_ci", "CircleCI", false, ""),
			boolField("enable_sql_fluff", "SQLFluff", false, ""),
			boolField("enable_prisma_schema_linting", "Prisma Schema Linting", false, ""),
			boolField("enable_oxc", "oxc", false, ""),
			boolField("enable_shopify_theme_check", "Shopify Theme Check", false, ""),
		),
	),
}

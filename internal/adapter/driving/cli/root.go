// Package cli implements the guardianctl command-line driving adapter.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

// SessionID is the key the CLI session is persisted under.
const SessionID = "default"

// Services bundles the application services the CLI uses. Session is the
// single persisted CLI session.
type Services struct {
	Session  *application.Session
	Auth     *application.AuthService
	Repos    *application.RepositoryService
	PRs      *application.PRService
	Settings *application.SettingsFlow
	Reviews  *application.ReviewService
}

// Factory builds the services once flags are parsed. configPath is the
// value of --config and may be empty.
type Factory func(ctx context.Context, configPath string) (*Services, error)

// runtime carries the parsed global flags and the lazily built services.
type runtime struct {
	factory     Factory
	configPath  string
	jsonOutput  bool
	searchDelay time.Duration
	svc         *Services
}

func (rt *runtime) services(cmd *cobra.Command) (*Services, error) {
	if rt.svc != nil {
		return rt.svc, nil
	}
	svc, err := rt.factory(cmd.Context(), rt.configPath)
	if err != nil {
		return nil, err
	}
	rt.svc = svc
	return svc, nil
}

// output writes v as indented JSON when --json is set, otherwise calls text.
func (rt *runtime) output(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	if rt.jsonOutput {
		return OutputJSON(cmd.OutOrStdout(), v)
	}
	text(cmd.OutOrStdout())
	return nil
}

// Option adjusts the root command.
type Option func(*runtime)

// WithSearchDelay overrides the quiet period of the interactive name filter.
func WithSearchDelay(d time.Duration) Option {
	return func(rt *runtime) { rt.searchDelay = d }
}

// NewRootCommand builds the guardianctl command tree.
func NewRootCommand(factory Factory, version string, opts ...Option) *cobra.Command {
	rt := &runtime{factory: factory, searchDelay: application.SearchDebounce}
	for _, o := range opts {
		o(rt)
	}

	root := &cobra.Command{
		Use:   "guardianctl",
		Short: "guardianctl - command-line access to the code review dashboard",
		Long: `guardianctl signs in to the code review backend and works with the same
repositories, pull request metrics and settings as the web dashboard.

QUICK START:
  guardianctl login                      # Print the GitHub sign-in URL
  guardianctl login --code <code>        # Finish signing in
  guardianctl repos --filter api         # Find a repository
  guardianctl settings show 42           # Show its settings
  guardianctl settings set 42 chat auto_reply false
  guardianctl prs --interactive          # Browse pull request activity
  guardianctl review main.go             # AI review of a file

JSON OUTPUT: Add --json to any command for machine-readable output.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&rt.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "config file (YAML)")

	root.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newWhoamiCmd(rt),
		newReposCmd(rt),
		newPRsCmd(rt),
		newSettingsCmd(rt),
		newReviewCmd(rt),
	)
	return root
}

// Execute runs root and reports a failure on stderr, or as a JSON error
// object when --json is set. It returns the process exit code.
func Execute(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	jsonFlag, _ := root.PersistentFlags().GetBool("json")
	if jsonFlag {
		_ = OutputJSON(root.OutOrStdout(), map[string]any{"error": true, "message": errorText(err)})
	} else {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %s\n", errorText(err))
	}
	return 1
}

// errorText adds a hint to authentication errors.
func errorText(err error) string {
	switch {
	case errors.Is(err, application.ErrSessionExpired):
		return err.Error() + " (run: guardianctl login)"
	case errors.Is(err, application.ErrAuthenticationMissing):
		return "not signed in (run: guardianctl login)"
	default:
		return err.Error()
	}
}

// OutputJSON writes data as indented JSON.
func OutputJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

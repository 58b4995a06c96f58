package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

func parseRepoID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid repository id %q", arg)
	}
	return id, nil
}

// settingsDocument is the JSON form of an aggregate, keyed by section.
func settingsDocument(agg settings.Aggregate, only []settings.Section) map[string]map[string]any {
	doc := make(map[string]map[string]any, len(only))
	for _, s := range only {
		doc[string(s)] = settings.EncodeSection(s, agg[s])
	}
	return doc
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		if x == "" {
			return `""`
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}

func printSettings(w io.Writer, agg settings.Aggregate, only []settings.Section) {
	for i, s := range only {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", s.Title(), s)
		values := agg[s]
		for _, f := range settings.Schema(s) {
			fmt.Fprintf(w, "  %-36s %s\n", f.Name, formatValue(values[f.Name]))
		}
	}
}

// printSaveFailure lists which sections did and did not land.
func printSaveFailure(w io.Writer, err error) {
	var saveErr *application.SaveError
	if !errors.As(err, &saveErr) {
		return
	}
	for _, f := range saveErr.Failures {
		fmt.Fprintf(w, "  failed: %s (%v)\n", f.Section, f.Err)
	}
	for _, s := range saveErr.Landed {
		fmt.Fprintf(w, "  saved:  %s\n", s)
	}
}

func newSettingsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change repository settings",
	}
	cmd.AddCommand(
		newSettingsShowCmd(rt),
		newSettingsSetCmd(rt),
		newSettingsExportCmd(rt),
		newSettingsImportCmd(rt),
		newSettingsResetCmd(rt),
	)
	return cmd
}

func newSettingsShowCmd(rt *runtime) *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "show <repo-id>",
		Short: "Show the settings of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRepoID(args[0])
			if err != nil {
				return err
			}
			only := settings.Sections()
			if section != "" {
				s, err := settings.ParseSection(section)
				if err != nil {
					return err
				}
				only = []settings.Section{s}
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			ed, err := svc.Settings.Open(cmd.Context(), svc.Session, id)
			if err != nil {
				return err
			}
			agg := ed.Snapshot()
			return rt.output(cmd, settingsDocument(agg, only), func(w io.Writer) {
				printSettings(w, agg, only)
			})
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "Only show one section")
	return cmd
}

func newSettingsSetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set <repo-id> <section> <field> <value>",
		Short: "Change one setting and save",
		Long: `Change one setting and save all sections.

Booleans accept true/false (or on/off). An empty value clears a nullable
text field.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRepoID(args[0])
			if err != nil {
				return err
			}
			section, err := settings.ParseSection(args[1])
			if err != nil {
				return err
			}
			field, raw := args[2], args[3]
			if _, err := settings.Lookup(section, field); err != nil {
				return err
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := svc.Settings.Open(ctx, svc.Session, id); err != nil {
				return err
			}
			if _, err := svc.Settings.SetFormValue(svc.Session, id, section, field, raw); err != nil {
				return err
			}
			ed, err := svc.Settings.Save(ctx, svc.Session, id)
			if err != nil {
				printSaveFailure(cmd.ErrOrStderr(), err)
				return err
			}

			value := ed.Section(section)[field]
			return rt.output(cmd, map[string]any{"section": section, "field": field, "value": value}, func(w io.Writer) {
				fmt.Fprintf(w, "Saved %s.%s = %s\n", section, field, formatValue(value))
			})
		},
	}
}

func newSettingsExportCmd(rt *runtime) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <repo-id>",
		Short: "Write the settings of a repository as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRepoID(args[0])
			if err != nil {
				return err
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			ed, err := svc.Settings.Open(cmd.Context(), svc.Session, id)
			if err != nil {
				return err
			}
			data, err := ExportYAML(ed.Snapshot())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newSettingsImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <repo-id> <file>",
		Short: "Apply a YAML settings file and save",
		Long: `Apply a YAML settings file (as written by export) and save all sections.

Each section in the file replaces the stored section; fields omitted from
a section take their defaults and sections omitted from the file are kept.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRepoID(args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ed, err := svc.Settings.Open(ctx, svc.Session, id)
			if err != nil {
				return err
			}
			agg, err := ImportYAML(ed.Snapshot(), data)
			if err != nil {
				return err
			}
			if _, err := svc.Settings.Import(ctx, svc.Session, id, agg); err != nil {
				printSaveFailure(cmd.ErrOrStderr(), err)
				return err
			}
			return rt.output(cmd, map[string]any{"repository_id": id, "saved": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Imported settings for repository %d\n", id)
			})
		},
	}
}

func newSettingsResetCmd(rt *runtime) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <repo-id>",
		Short: "Reset every section to its defaults and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRepoID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("reset overwrites all eight sections; pass --yes to confirm")
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			if _, err := svc.Settings.Reset(cmd.Context(), svc.Session, id); err != nil {
				printSaveFailure(cmd.ErrOrStderr(), err)
				return err
			}
			return rt.output(cmd, map[string]any{"repository_id": id, "reset": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Reset settings for repository %d\n", id)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

type reviewOutput struct {
	Markdown string   `json:"markdown"`
	HTML     string   `json:"html"`
	Headings []string `json:"headings"`
	Source   string   `json:"source,omitempty"`
}

func newReviewCmd(rt *runtime) *cobra.Command {
	var (
		source string
		asHTML bool
	)

	cmd := &cobra.Command{
		Use:   "review [file]",
		Short: "Run an AI code review",
		Long: `Run an AI code review of a file, of standard input, or of a file in a
GitHub repository.

Examples:
  guardianctl review main.go
  git diff | guardianctl review -
  guardianctl review --source acme/api/cmd/server/main.go@main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source != "" && len(args) > 0 {
				return fmt.Errorf("pass either a file or --source, not both")
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			var res application.ReviewResult
			if source != "" {
				ref, err := application.ParseSourceRef(source)
				if err != nil {
					return err
				}
				res, err = svc.Reviews.ReviewSource(cmd.Context(), ref)
				if err != nil {
					return err
				}
			} else {
				path := "-"
				if len(args) == 1 {
					path = args[0]
				}
				code, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				res, err = svc.Reviews.Review(cmd.Context(), string(code))
				if err != nil {
					return err
				}
			}

			out := reviewOutput{Markdown: res.Markdown, HTML: res.HTML, Headings: res.Document.Headings()}
			if res.Source != nil {
				out.Source = res.Source.String()
			}
			return rt.output(cmd, out, func(w io.Writer) {
				if asHTML {
					fmt.Fprintln(w, res.HTML)
					return
				}
				fmt.Fprintln(w, res.Markdown)
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Review a GitHub file: owner/repo/path[@ref] or a blob URL")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the sanitized HTML rendering")
	return cmd
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

const dateLayout = "2006-01-02"

type prOutput struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	PullRequestURL string    `json:"url_pull_request"`
	Commits        int       `json:"commits"`
	Comments       int       `json:"comments"`
	ReviewComments int       `json:"review_comments"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type totalsOutput struct {
	PullRequests   int `json:"pull_requests"`
	Commits        int `json:"commits"`
	Comments       int `json:"comments"`
	ReviewComments int `json:"review_comments"`
}

type prDashboardOutput struct {
	PullRequests []prOutput   `json:"pull_requests"`
	Totals       totalsOutput `json:"totals"`
	Page         int          `json:"page"`
	Limit        int          `json:"limit"`
	Total        int          `json:"total"`
	TotalPages   int          `json:"total_pages"`
}

func toPRDashboardOutput(d application.PRDashboard) prDashboardOutput {
	p := d.Page.Pagination
	out := prDashboardOutput{
		PullRequests: make([]prOutput, 0, len(d.Page.Data)),
		Totals: totalsOutput{
			PullRequests:   d.Totals.PullRequests,
			Commits:        d.Totals.Commits,
			Comments:       d.Totals.Comments,
			ReviewComments: d.Totals.ReviewComments,
		},
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
	for _, s := range d.Page.Data {
		out.PullRequests = append(out.PullRequests, prOutput{
			ID:             s.ID,
			Name:           s.Name,
			URL:            s.URL,
			PullRequestURL: s.PullRequestURL,
			Commits:        s.Commits,
			Comments:       s.Comments,
			ReviewComments: s.ReviewComments,
			UpdatedAt:      s.UpdatedAt,
		})
	}
	return out
}

func printDashboard(w io.Writer, d application.PRDashboard) {
	t := d.Totals
	fmt.Fprintf(w, "Pull requests: %d  Commits: %d  Comments: %d  Review comments: %d\n\n",
		t.PullRequests, t.Commits, t.Comments, t.ReviewComments)

	if len(d.Page.Data) == 0 {
		fmt.Fprintln(w, "No pull requests match these filters.")
		return
	}
	fmt.Fprintf(w, "%-30s %8s %9s %8s  %s\n", "REPOSITORY", "COMMITS", "COMMENTS", "REVIEWS", "UPDATED")
	for _, s := range d.Page.Data {
		updated := ""
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Format(dateLayout)
		}
		fmt.Fprintf(w, "%-30s %8d %9d %8d  %s\n", s.Name, s.Commits, s.Comments, s.ReviewComments, updated)
	}
	p := d.Page.Pagination
	printPageLine(w, max(p.Page, 1), p.TotalPages, p.Total, "pull requests", d.Links)
}

func parseDate(flag, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: want YYYY-MM-DD, got %q", flag, raw)
	}
	return t, nil
}

func newPRsCmd(rt *runtime) *cobra.Command {
	var (
		q           application.PRQuery
		from, to    string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "prs",
		Short: "Show pull request activity",
		Long: `Show pull request activity with totals for commits, comments and
review comments.

With --interactive, reads navigation commands from standard input:
  n, p           next / previous page
  g <page>       go to a page
  size <n>       change the page size
  name <text>    filter by repository name (applied after typing settles)
  from <date>    only PRs created on or after the date (YYYY-MM-DD)
  to <date>      only PRs created on or before the date
  clear          remove all filters
  r              refresh
  q              quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !application.ValidPageSize(q.Limit) {
				return fmt.Errorf("--limit must be one of %s", joinInts(application.PageSizes))
			}
			var err error
			if q.From, err = parseDate("--from", from); err != nil {
				return err
			}
			if q.To, err = parseDate("--to", to); err != nil {
				return err
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			if interactive {
				return rt.browsePRs(cmd, svc, q)
			}

			dash, err := svc.PRs.Fetch(cmd.Context(), svc.Session, q)
			if err != nil {
				return err
			}
			return rt.output(cmd, toPRDashboardOutput(dash), func(w io.Writer) {
				printDashboard(w, dash)
			})
		},
	}
	cmd.Flags().StringVarP(&q.Name, "name", "n", "", "Filter by repository name")
	cmd.Flags().StringVar(&from, "from", "", "Created on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Created on or before (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&q.Page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&q.Limit, "limit", "l", application.DefaultPageSize, "Page size ("+joinInts(application.PageSizes)+")")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse pages interactively")
	return cmd
}

// browsePRs drives a PRQueryController from line commands on stdin. Each
// query change prints the fetched page; authentication errors end the
// session.
func (rt *runtime) browsePRs(cmd *cobra.Command, svc *Services, initial application.PRQuery) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		mu      sync.Mutex
		authErr error
	)
	out := cmd.OutOrStdout()

	var ctrl *application.PRQueryController
	ctrl = application.NewPRQueryController(initial.Limit, rt.searchDelay, func(q application.PRQuery) {
		dash, err := svc.PRs.Fetch(ctx, svc.Session, q)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if application.IsAuthError(err) {
				authErr = err
				cancel()
			}
			fmt.Fprintf(out, "Error: %s\n", errorText(err))
			return
		}
		ctrl.Observe(dash.Page.Pagination.Total)
		if rt.jsonOutput {
			_ = OutputJSON(out, toPRDashboardOutput(dash))
			return
		}
		printDashboard(out, dash)
	})
	defer ctrl.Close()

	if initial.Name != "" || !initial.From.IsZero() || !initial.To.IsZero() {
		ctrl.SetDates(initial.From, initial.To)
		if initial.Name != "" {
			ctrl.SetName(initial.Name)
		}
	} else {
		ctrl.Refresh()
	}
	if initial.Page > 1 {
		ctrl.GoTo(initial.Page)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for ctx.Err() == nil && scanner.Scan() {
		verb, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "":
		case "q", "quit":
			return nil
		case "n", "next":
			ctrl.Next()
		case "p", "prev":
			ctrl.Prev()
		case "g", "goto":
			if n, err := strconv.Atoi(arg); err == nil {
				ctrl.GoTo(n)
			}
		case "size":
			if n, err := strconv.Atoi(arg); err == nil {
				ctrl.SetPageSize(n)
			}
		case "name":
			ctrl.SetName(arg)
		case "from", "to":
			t, err := parseDate(verb, arg)
			if err != nil {
				fmt.Fprintf(out, "Error: %s\n", err)
				continue
			}
			cur := ctrl.Query()
			if verb == "from" {
				ctrl.SetDates(t, cur.To)
			} else {
				ctrl.SetDates(cur.From, t)
			}
		case "clear":
			ctrl.Clear()
		case "r", "refresh":
			ctrl.Refresh()
		default:
			fmt.Fprintf(out, "Unknown command %q\n", verb)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if authErr != nil {
		return authErr
	}
	return scanner.Err()
}

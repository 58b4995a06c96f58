package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

type repoOutput struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Owner       string  `json:"owner"`
	Private     bool    `json:"private"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
}

type repoListOutput struct {
	Repositories []repoOutput `json:"repositories"`
	Total        int          `json:"total"`
	Page         int          `json:"page"`
	PageSize     int          `json:"page_size"`
	TotalPages   int          `json:"total_pages"`
}

func toRepoOutput(r model.Repository) repoOutput {
	return repoOutput{
		ID:          r.ID,
		Name:        r.Name,
		FullName:    r.FullName,
		Owner:       r.Owner,
		Private:     r.Private,
		Description: r.Description,
		HTMLURL:     r.HTMLURL,
	}
}

func newReposCmd(rt *runtime) *cobra.Command {
	var (
		filter string
		page   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "repos",
		Short:   "List connected repositories",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !application.ValidPageSize(limit) {
				return fmt.Errorf("--limit must be one of %s", joinInts(application.PageSizes))
			}
			svc, err := rt.services(cmd)
			if err != nil {
				return err
			}

			listing, err := svc.Repos.List(cmd.Context(), svc.Session, filter, page, limit)
			if err != nil {
				return err
			}

			out := repoListOutput{
				Repositories: make([]repoOutput, 0, len(listing.Repositories)),
				Total:        listing.Total,
				Page:         listing.Page,
				PageSize:     listing.PageSize,
				TotalPages:   listing.TotalPages,
			}
			for _, r := range listing.Repositories {
				out.Repositories = append(out.Repositories, toRepoOutput(r))
			}

			return rt.output(cmd, out, func(w io.Writer) {
				if listing.Total == 0 {
					fmt.Fprintln(w, "No repositories found")
					return
				}
				fmt.Fprintf(w, "%-8s %-40s %s\n", "ID", "REPOSITORY", "VISIBILITY")
				for _, r := range listing.Repositories {
					visibility := "public"
					if r.Private {
						visibility = "private"
					}
					name := r.FullName
					if name == "" {
						name = r.Name
					}
					fmt.Fprintf(w, "%-8d %-40s %s\n", r.ID, name, visibility)
				}
				printPageLine(w, listing.Page, listing.TotalPages, listing.Total, "repositories", listing.Links)
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Filter by name or full name")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&limit, "limit", "l", application.DefaultPageSize, "Page size ("+joinInts(application.PageSizes)+")")
	return cmd
}

// printPageLine writes "Page 2/9 (85 repositories)  1 [2] 3 4 5 ... 9".
func printPageLine(w io.Writer, page, totalPages, total int, noun string, links []application.PageLink) {
	fmt.Fprintf(w, "\nPage %d/%d (%d %s)", page, max(totalPages, 1), total, noun)
	if len(links) > 1 {
		fmt.Fprint(w, "  ", formatLinks(links))
	}
	fmt.Fprintln(w)
}

func formatLinks(links []application.PageLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		switch {
		case l.Ellipsis:
			parts = append(parts, "...")
		case l.Current:
			parts = append(parts, "["+strconv.Itoa(l.Number)+"]")
		default:
			parts = append(parts, strconv.Itoa(l.Number))
		}
	}
	return strings.Join(parts, " ")
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/waynefred/ocean-journal/internal/models"
	"github.com/waynefred/ocean-journal/internal/pagination"
)

func newArticlesCmd(a *app) *cobra.Command {
	var (
		all   bool
		page  int
		limit int
	)
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List published articles, or every article with --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()
			articles, _ := a.repositories(stores)

			var (
				items []models.Article
				meta  *pagination.Meta
			)
			if all {
				items, err = articles.ListAll(cmd.Context())
			} else {
				var p models.Page[models.Article]
				p, err = articles.ListPublished(cmd.Context(), page, limit)
				items = p.Items
				m := pagination.NewMeta(page, limit, p.TotalCount)
				meta = &m
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tLIKES\tCREATED\tTITLE")
			for _, art := range items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					art.ID, art.Status, art.Likes, art.CreatedAt.Format("2006-01-02"), art.Title)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if meta != nil && meta.TotalPages > 1 {
				labels := make([]string, len(meta.Pages))
				for i, p := range meta.Pages {
					labels[i] = p.String()
					if int(p) == meta.Page {
						labels[i] = "[" + labels[i] + "]"
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\npage %s of %d (%d articles)\n",
					strings.Join(labels, " "), meta.TotalPages, meta.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include drafts")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "articles per page")
	return cmd
}

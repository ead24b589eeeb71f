package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/inkwell/internal/blog"
	"github.com/devilmonastery/inkwell/internal/pkg/textutil"
	"github.com/devilmonastery/inkwell/internal/pkg/timeutil"
)

const summaryLength = 60

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newCategoriesCommand() *cobra.Command {
	var (
		tree     bool
		fatherID int64
	)

	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats"},
		Short:   "List blog categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := getCliContext(cmd).App.Blog
			out := cmd.OutOrStdout()

			if tree {
				roots, err := svc.GetAllCategories(cmd.Context())
				if err != nil {
					return err
				}
				printCategoryTree(out, roots, 0)
				return nil
			}

			cats, err := svc.GetCategories(cmd.Context(), fatherID)
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				fmt.Fprintln(out, "No categories found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLEVEL\tCHILDREN")
			for _, c := range cats {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", c.ID, c.Name, c.Level, len(c.SubCategory))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "Show the whole category tree")
	cmd.Flags().Int64Var(&fatherID, "father", 0, "List children of this category")

	cmd.AddCommand(newCategoryDeleteCommand())

	return cmd
}

func printCategoryTree(w io.Writer, nodes []*blog.Category, depth int) {
	for _, c := range nodes {
		fmt.Fprintf(w, "%s%s (%d)\n", strings.Repeat("  ", depth), c.Name, c.ID)
		printCategoryTree(w, c.SubCategory, depth+1)
	}
}

func newCategoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete CATEGORY_ID",
		Short: "Delete a category (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := getCliContext(cmd).App.Blog.DeleteCategory(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Category %d deleted\n", id)
			return nil
		},
	}
}

func newArticlesCommand() *cobra.Command {
	var q blog.ListQuery

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List articles",
		Long: `List articles, optionally filtered by category id or keyword.

Examples:
  inkwell articles --key 3
  inkwell articles --key golang --page 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			page, err := cliCtx.App.Blog.GetArticleList(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(page.List) == 0 {
				fmt.Fprintln(out, "No articles found")
				return nil
			}

			tz := cliCtx.Context.Rendering.Timezone
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPUBLISHED\tTITLE\tSUMMARY")
			for _, a := range page.List {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					a.ID,
					timeutil.FormatMillis(a.DatePublish, tz, timeutil.DateLayout),
					a.Title,
					textutil.Summary(a.Summary, summaryLength),
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPage %d, %d of %d articles\n", page.Page, len(page.List), page.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Key, "key", "", "Category id or search keyword")
	cmd.Flags().IntVar(&q.Page, "page", 0, "Page number")
	cmd.Flags().IntVar(&q.PageSize, "page-size", 0, "Articles per page")

	return cmd
}

func newArticleCommand() *cobra.Command {
	var noLinks bool

	cmd := &cobra.Command{
		Use:   "article ARTICLE_ID",
		Short: "Show an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			cliCtx := getCliContext(cmd)
			svc := cliCtx.App.Blog
			article, err := svc.GetArticleDetail(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tz := cliCtx.Context.Rendering.Timezone

			var b strings.Builder
			fmt.Fprintf(&b, "# %s\n\n", article.Title)
			if article.DatePublish > 0 {
				fmt.Fprintf(&b, "*%s*\n\n", timeutil.FormatMillis(article.DatePublish, tz, timeutil.DateTimeLayout))
			}
			if tags := textutil.ExtractTags(article.Content); len(tags) > 0 {
				fmt.Fprintf(&b, "Tags: %s\n\n", strings.Join(tags, ", "))
			}
			b.WriteString(article.Content)
			b.WriteString("\n")
			printMarkdown(out, b.String(), getTheme(cliCtx.Config))

			if noLinks {
				return nil
			}
			links, err := svc.GetArticleRecommendLinks(cmd.Context(), id)
			if err != nil {
				cliCtx.Logger.Warn("failed to load recommended links", "error", err)
				return nil
			}
			if len(links) > 0 {
				fmt.Fprintln(out, "\nRecommended:")
				for _, l := range links {
					fmt.Fprintf(out, "  - %s %s\n", l.Title, l.URL)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noLinks, "no-links", false, "Skip recommended links")

	return cmd
}

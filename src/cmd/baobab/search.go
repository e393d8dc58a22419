package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"baobab/src/github"
)

var (
	searchHost   string
	searchPages  int
	searchAuthor string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search issues and pull requests on GitHub Enterprise",
	Example: `  baobab search "is:open is:pr repo:infra/ci"
  baobab search --author alice --pages 3`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query, err := searchQuery(args, searchAuthor)
		if err != nil {
			exitWithError(err)
		}

		if searchHost != "" {
			appConfig.GitHubHost = searchHost
		}
		if err := appConfig.ValidateSearch(); err != nil {
			exitWithError(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log, closeLog := openLogger(appConfig, false)
		defer closeLog()

		client := github.NewClient(appConfig.GitHubHost, appConfig.GitHubToken, nil, log)
		if err := runSearch(ctx, client, query, searchPages, os.Stdout); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchHost, "host", "", "GitHub Enterprise base URL (default: github_host from config)")
	searchCmd.Flags().IntVar(&searchPages, "pages", 1, "max pages to read, 0 for all")
	searchCmd.Flags().StringVar(&searchAuthor, "author", "", "only issues authored by this user")
}

// searchQuery builds the search query from the positional argument and --author.
func searchQuery(args []string, author string) (string, error) {
	var parts []string
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		parts = append(parts, strings.TrimSpace(args[0]))
	}
	if author != "" {
		parts = append(parts, "author:"+author)
	}
	if len(parts) == 0 {
		return "", errors.New("a query or --author is required")
	}
	return strings.Join(parts, " "), nil
}

// runSearch prints every issue on up to maxPages pages. A malformed Link
// header ends the walk after printing the page it came with.
func runSearch(ctx context.Context, client *github.Client, query string, maxPages int, w io.Writer) error {
	printed := 0
	headerShown := false
	var linkErr error

	err := client.Walk(ctx, query, maxPages, func(page *github.Page) error {
		if !headerShown {
			fmt.Fprintf(w, "%d results for %q\n\n", page.TotalCount, query)
			headerShown = true
		}
		for _, issue := range page.Items {
			fmt.Fprint(w, formatIssue(issue))
			printed++
		}
		linkErr = page.LinkErr()
		return nil
	})
	if linkErr != nil && errors.Is(err, linkErr) {
		fmt.Fprintf(w, "\nstopped early: %v\n", linkErr)
		return nil
	}
	if err != nil {
		return err
	}

	if printed == 0 {
		fmt.Fprintln(w, "no results")
	}
	return nil
}

func formatIssue(issue github.Issue) string {
	return fmt.Sprintf("#%d %s\n    %s\n", issue.ID, issue.Title, issue.URL)
}

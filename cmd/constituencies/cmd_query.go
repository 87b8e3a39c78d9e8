package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"constituencies/internal/api"
	"constituencies/internal/panel"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var filterTerm string

var provincesCmd = &cobra.Command{
	Use:   "provinces",
	Short: "Print all provinces, sorted",
	Args:  cobra.NoArgs,
	RunE:  runProvinces,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Print every constituency in the country, sorted",
	Args:  cobra.NoArgs,
	RunE:  runAll,
}

var listCmd = &cobra.Command{
	Use:   "list [province]",
	Short: "Print the constituencies of a province",
	Long: `Loads the province list, selects the given province and prints its
constituencies sorted by name. --filter hides names that do not contain the
term, ignoring case.

Example:
  constituencies list Lusaka --filter kab`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [constituency]",
	Short: "Print the province a constituency belongs to",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	listCmd.Flags().StringVarP(&filterTerm, "filter", "f", "", "Only show constituencies containing this text")
}

func runProvinces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	return printSorted(cmd, "provinces", newClient().Provinces(ctx))
}

func runAll(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	return printSorted(cmd, "constituencies", newClient().AllConstituencies(ctx))
}

// printSorted prints a list result one name per line. The API's order is not
// trusted.
func printSorted(cmd *cobra.Command, what string, res api.Result) error {
	switch res.Kind {
	case api.KindFailure:
		logger.Debug("list load failed", zap.String("what", what), zap.Error(res.Err))
		return fmt.Errorf("failed to load %s: %w", what, res.Err)
	case api.KindEmpty:
		fmt.Fprintf(cmd.OutOrStdout(), "No %s found.\n", what)
		return nil
	}

	names := append([]string(nil), res.Items...)
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}

// runList drives the same controller the browser uses, synchronously.
func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ctrl := panel.New(newClient())
	ctrl.Mount(ctx)
	if ctrl.View().SelectorDisabled {
		return errors.New(panel.FailedProvincesLabel)
	}

	province := strings.TrimSpace(args[0])
	ctrl.SelectProvince(ctx, province)
	if filterTerm != "" {
		ctrl.Filter(filterTerm)
	}

	view := ctrl.View()
	logger.Debug("list finished",
		zap.String("province", province),
		zap.Stringer("state", view.State),
		zap.Int("rows", len(view.Rows)))

	switch view.Notice {
	case panel.NoticeError:
		return errors.New(panel.ErrorNoticeText)
	case panel.NoticeEmpty:
		fmt.Fprintln(cmd.OutOrStdout(), panel.EmptyNoticeText)
		return nil
	}

	for _, name := range view.VisibleRows() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	m, err := newClient().LookupProvince(ctx, args[0])
	if errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("constituency %q not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.Constituency, m.Province)
	return nil
}

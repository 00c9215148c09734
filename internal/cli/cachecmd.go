package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCacheCmd(a *app) *cobra.Command {
	var flagExpired bool

	cmd := &cobra.Command{
		Use:   "clear-cache",
		Short: "Clear the cached lab data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close() // nolint:errcheck

			w := cmd.OutOrStdout()

			if flagExpired {
				removed, err := c.CleanExpired()
				if err != nil {
					return err
				}
				fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Removed %d expired entries.", removed)))
				return nil
			}

			entries := c.Len()
			if entries == 0 {
				fmt.Fprintln(w, dimStyle.Render("Cache is already empty."))
				return nil
			}

			field(w, "", "Cache location", c.Dir())
			field(w, "", "Entries", entries)

			if _, err := c.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(w, successStyle.Render("Cache cleared successfully."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagExpired, "expired", false, "Only remove entries past their TTL")
	return cmd
}

func newCacheInfoCmd(a *app) *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:   "cache-info",
		Short: "Show cache information and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(flagFormat)
			if err != nil {
				return err
			}

			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close() // nolint:errcheck

			info, err := c.Info()
			if err != nil {
				return err
			}

			if format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			writeCacheInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	return cmd
}

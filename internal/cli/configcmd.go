package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/gensec-template/gensec-template/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show where settings come from and their effective values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := config.Describe(a.flagConfig)
			if a.cfg.URLSource == config.SourceFlag {
				d.EffectiveURL = a.cfg.BaseURL
				d.EffectiveSource = config.SourceFlag
			}
			writeConfigDescription(cmd.OutOrStdout(), d, a.cfg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-url <url>",
		Short: "Save the course page URL to the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(args[0])
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid URL: %s (must be an http or https URL)", args[0])
			}

			if err := config.SetURL(a.flagConfig, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Saved base URL to"), a.flagConfig)
			return nil
		},
	})

	return cmd
}

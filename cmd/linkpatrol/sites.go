package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bcsdweb/linkpatrol/internal/config"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Print the effective site list",
		Long: `Sites prints the site list that 'check' would use, one URL per line,
after comment and blank-line filtering. Without --sites-file the embedded
district list is printed.`,
		Args: cobra.NoArgs,
		RunE: runSitesCmd,
	}

	cmd.Flags().StringP("sites-file", "s", "",
		"File with one site URL per line (default: embedded district list)")

	return cmd
}

// runSitesCmd executes the sites command.
func runSitesCmd(cmd *cobra.Command, _ []string) error {
	sitesFile, err := cmd.Flags().GetString("sites-file")
	if err != nil {
		return err
	}

	var sites []string
	if sitesFile != "" {
		sites, err = config.LoadSiteList(sitesFile)
		if err != nil {
			return fmt.Errorf("failed to load sites file: %w", err)
		}
	} else {
		sites = config.DefaultSites()
	}

	for _, site := range sites {
		fmt.Fprintln(cmd.OutOrStdout(), site)
	}
	return nil
}

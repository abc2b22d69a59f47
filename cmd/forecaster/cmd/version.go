package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := contracts.GetVersionInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "forecaster %s\n", info.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  go: %s\n", info.GoVersion)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s, built: %s\n", info.GitCommit, info.BuildTime)
		fmt.Fprintf(cmd.OutOrStdout(), "  platform: %s/%s\n", info.OS, info.Architecture)
		fmt.Fprintf(cmd.OutOrStdout(), "  workbook format: %s\n", info.WorkbookFormat)
	},
}

package cmd

import (
	"github.com/huangsam/riskgate/internal/iostore"
	"github.com/huangsam/riskgate/internal/mcp"
	"github.com/huangsam/riskgate/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the MCP server command.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"mcp"},
	Short:   "Start the Riskgate MCP server",
	Long:    `Launch an MCP server on stdio that lets AI agents compare published runs, browse run history, and resolve analyzer versions.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := baseSetup(false); err != nil {
			return err
		}
		cfg.AnalyzerPackage = viper.GetString("analyzer-package")
		cfg.AnalyzerVersion = viper.GetString("analyzer-version")
		return storeSetup(true, true)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		resolver := registry.NewNPMResolver(viper.GetString("registry-url"), cfg.AnalyzerPackage, 0)
		return mcp.StartMCPServer(rootCtx, cfg, iostore.Manager, resolver)
	},
}

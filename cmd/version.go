package cmd

import (
	"runtime"

	"github.com/huangsam/riskgate/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of riskgate.",
	Long: `Display version information including build details.

Shows:
- Release version
- Git commit hash
- Build timestamp
- Go runtime version
- With --analyzer, the analyzer version a run would resolve to`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("riskgate CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())

		if analyzer, _ := cmd.Flags().GetBool("analyzer"); analyzer {
			pkg := viper.GetString("analyzer-package")
			spec := viper.GetString("analyzer-version")
			resolver := registry.NewNPMResolver(viper.GetString("registry-url"), pkg, 0)
			cmd.Printf("  Analyzer: %s@%s (requested %s)\n", pkg, resolver.Resolve(rootCtx, spec), spec)
		}
	},
}

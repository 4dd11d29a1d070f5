// main is the entry point for the riskgate CLI.
package main

import (
	"os"

	"github.com/huangsam/riskgate/cmd"
	"github.com/huangsam/riskgate/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogError("riskgate failed", err)
		os.Exit(1)
	}
}

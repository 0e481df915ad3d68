package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shipcheck",
	Short: "Deployment verification harness for the PDF-parser API image",
	Long: `Builds the PDF-parser API container image, launches it, polls the health
endpoint with bounded retries, samples resource usage, and prints a summary.

Exit code is non-zero when the build, the launch, or the readiness check
fails. Size warnings and missing resource samples never fail a run.`,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(teardownCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "tradehub",
	Short: "Command-line client for the Import Export Hub",
	Long: `tradehub browses the marketplace catalog and records import and export
transactions against the hub API.

Configuration comes from TRADEHUB_-prefixed environment variables (a .env
file in the working directory is honored):
  TRADEHUB_API_BASE_URL   hub API endpoint (required)
  TRADEHUB_SESSION_TOKEN  signed session token identifying the acting user
  TRADEHUB_JWT_SECRET     secret used to verify the session token`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

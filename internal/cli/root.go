package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dnsjumper/internal/app"
)

var (
	appInstance *app.App
	version     = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dnsjumper",
	Short: "DNS Jumper - benchmark and switch DNS servers",
	Long: `DNS Jumper - benchmark and switch DNS servers

  Store DNS server profiles, measure their latency, and apply the
  fastest one through NetworkManager.

  Quick start:
    dnsjumper profile add Home 1.1.1.1 1.0.0.1
    dnsjumper test
    dnsjumper apply Cloudflare --flush

  Core features:
    • Built-in profiles for Google, Cloudflare, Quad9 and OpenDNS
    • Concurrent latency benchmarking with per-server timeouts
    • Ranked results with failure-aware ordering
    • Verified apply with automatic rollback on mismatch
    • Latency history and a periodic benchmark daemon`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appInstance, err = app.New()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance != nil {
			return appInstance.Close()
		}
		return nil
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DNS Jumper %s\n", version)
	},
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Apply a DNS profile via NetworkManager",
	Long: `Apply a DNS profile as the system DNS configuration.

The change goes through NetworkManager under a single authentication
prompt, is verified by re-reading the system configuration, and is rolled
back automatically when verification fails. Applying the profile that is
already active is a no-op.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		flush, _ := cmd.Flags().GetBool("flush")

		p, err := appInstance.Profiles.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Applying '%s' (%s)... ", p.Name, strings.Join(p.Servers, ", "))
		if err := appInstance.Applier.Apply(ctx, p); err != nil {
			fmt.Println("failed")
			return err
		}
		fmt.Println("done")

		if flush {
			fmt.Print("Flushing DNS caches... ")
			if err := appInstance.Flusher.Flush(ctx); err != nil {
				fmt.Println("failed")
				return err
			}
			fmt.Println("done")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied DNS configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		logLimit, _ := cmd.Flags().GetInt("log")

		active := appInstance.Applier.Active()
		if active.Applied == nil {
			fmt.Println("No profile applied by dnsjumper.")
		} else {
			fmt.Printf("Active profile: %s\n", active.Applied.Name)
			fmt.Printf("Servers:        %s\n", strings.Join(active.Applied.Servers, ", "))
			fmt.Printf("Applied at:     %s\n", active.AppliedAt.Format("2006-01-02 15:04:05"))
			if active.Previous != nil {
				fmt.Printf("Previous:       %s\n", active.Previous.Name)
			}
		}

		if logLimit <= 0 {
			return nil
		}

		history, err := appInstance.Storage.ApplyHistory(ctx, logLimit)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tPROFILE\tRESULT")
		fmt.Fprintln(w, "----\t-------\t------")
		for _, rec := range history {
			result := "applied"
			if !rec.Success {
				result = rec.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				rec.AppliedAt.Format("2006-01-02 15:04:05"), rec.ProfileName, result)
		}
		return w.Flush()
	},
}

func init() {
	applyCmd.Flags().Bool("flush", false, "flush DNS caches after applying")
	statusCmd.Flags().Int("log", 0, "also show the last N apply attempts")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(statusCmd)
}

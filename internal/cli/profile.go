package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dnsjumper/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage DNS profiles",
	Long: `Manage DNS profiles.

A profile is a named, ordered list of DNS server addresses. Built-in
profiles (Google, Cloudflare, Quad9, OpenDNS) cannot be removed, only
hidden.`,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <server>...",
	Short: "Add a DNS profile",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := profile.Profile{
			Name:    args[0],
			Servers: args[1:],
		}
		if err := appInstance.Profiles.Add(p); err != nil {
			return err
		}
		fmt.Printf("Added profile '%s' (%s)\n", p.Name, strings.Join(p.Servers, ", "))
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:               "remove <name>",
	Short:             "Remove a user-defined DNS profile",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appInstance.Profiles.Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed profile '%s'\n", args[0])
		return nil
	},
}

var profileHideCmd = &cobra.Command{
	Use:               "hide <name>",
	Short:             "Hide a built-in profile from listings",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appInstance.Profiles.Hide(args[0]); err != nil {
			return err
		}
		fmt.Printf("Hid profile '%s'\n", args[0])
		return nil
	},
}

var profileUnhideCmd = &cobra.Command{
	Use:   "unhide <name>",
	Short: "Restore a hidden built-in profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appInstance.Profiles.Unhide(args[0]); err != nil {
			return err
		}
		fmt.Printf("Restored profile '%s'\n", args[0])
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List DNS profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles := appInstance.Profiles.List()
		if len(profiles) == 0 {
			fmt.Println("No profiles. Add one with: dnsjumper profile add <name> <server>...")
			return nil
		}

		active := appInstance.Applier.Active()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSERVERS\tSOURCE\t")
		fmt.Fprintln(w, "----\t-------\t------\t")
		for _, p := range profiles {
			marker := ""
			if active.Applied != nil && active.Applied.Name == p.Name {
				marker = "(active)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.Name, strings.Join(p.Servers, ", "), p.Source, marker)
		}
		return w.Flush()
	},
}

var profileShowCmd = &cobra.Command{
	Use:               "show <name>",
	Short:             "Show a profile and its recent latency history",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := appInstance.Profiles.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Profile: %s (%s)\n", p.Name, p.Source)
		for i, s := range p.Servers {
			fmt.Printf("  %d. %s\n", i+1, s)
		}

		limit := appInstance.Config.Get().HistoryLimit
		history, err := appInstance.Storage.ProbeHistory(ctx, p.Name, limit)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("\nNo latency history yet. Run: dnsjumper test")
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSERVER\tLATENCY\tSTATUS")
		fmt.Fprintln(w, "----\t------\t-------\t------")
		for _, rec := range history {
			latStr := "N/A"
			if rec.LatencyMS != nil {
				latStr = fmt.Sprintf("%d ms", *rec.LatencyMS)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				rec.TestedAt.Format("2006-01-02 15:04:05"), rec.Server, latStr, rec.Status)
		}
		return w.Flush()
	},
}

func init() {
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileHideCmd)
	profileCmd.AddCommand(profileUnhideCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

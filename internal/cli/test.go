package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"dnsjumper/internal/bench"
	"dnsjumper/internal/probe"
	"dnsjumper/internal/profile"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

var testCmd = &cobra.Command{
	Use:   "test [name...]",
	Short: "Benchmark DNS profile latency",
	Long: `Benchmark the latency of DNS profiles.

With no arguments every visible profile is tested. Probes run concurrently
across all profiles, bounded by --workers, each with its own timeout.
Results are ranked by the best observed latency per profile; profiles whose
servers all failed rank last.`,
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		workers, _ := cmd.Flags().GetInt64("workers")
		timeoutMS, _ := cmd.Flags().GetInt64("timeout")
		attempts, _ := cmd.Flags().GetInt("attempts")

		cfg := appInstance.Config.Get()
		if !cmd.Flags().Changed("workers") {
			workers = cfg.Workers
			if val, err := appInstance.Storage.GetSetting(ctx, "benchmark_workers"); err == nil {
				if parsed, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
					workers = parsed
				}
			}
		}
		if !cmd.Flags().Changed("timeout") {
			timeoutMS = int64(cfg.TimeoutMS)
			if val, err := appInstance.Storage.GetSetting(ctx, "benchmark_timeout"); err == nil {
				if parsed, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
					timeoutMS = parsed
				}
			}
		}
		if !cmd.Flags().Changed("attempts") {
			attempts = cfg.Attempts
		}

		profiles, err := selectProfiles(args)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles to test.")
			return nil
		}

		prober := probe.New(cfg.QueryName, time.Duration(timeoutMS)*time.Millisecond, attempts)
		runner := bench.NewRunner(prober, appInstance.Storage, bench.RunnerConfig{
			Workers: workers,
			Epsilon: cfg.Epsilon(),
		})

		total := 0
		for _, p := range profiles {
			total += len(p.Servers)
		}
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetDescription("probing"),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionShowCount(),
		)

		start := time.Now()
		reports, err := runner.Run(ctx, profiles, func(completed, total int) {
			bar.Add(1)
		})
		if err != nil {
			return err
		}

		printReports(reports, time.Since(start))
		return nil
	},
}

// selectProfiles resolves command arguments to profiles; no arguments means
// every visible profile.
func selectProfiles(args []string) ([]profile.Profile, error) {
	if len(args) == 0 {
		return appInstance.Profiles.List(), nil
	}
	var out []profile.Profile
	for _, name := range args {
		p, err := appInstance.Profiles.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func printReports(reports []*bench.Report, elapsed time.Duration) {
	fmt.Printf("\nResults (ranked by best latency):\n")
	fmt.Println(strings.Repeat("─", 72))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPROFILE\tSERVERS\tLATENCY\tSTATUS")
	fmt.Fprintln(w, "-\t-------\t-------\t-------\t------")

	succeeded := 0
	for _, report := range reports {
		latStr := "N/A"
		statusStr := failColor.Sprint("FAIL")
		if report.OK {
			succeeded++
			latStr = fmt.Sprintf("%d ms", report.Aggregate.Milliseconds())
			statusStr = okColor.Sprint("OK")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			report.Rank, report.Profile.Name,
			strings.Join(report.Profile.Servers, ", "), latStr, statusStr)
	}
	w.Flush()

	fmt.Printf("\nSummary: %d tested, %d succeeded, %d failed (%.1fs)\n",
		len(reports), succeeded, len(reports)-succeeded, elapsed.Seconds())
}

var testServersCmd = &cobra.Command{
	Use:               "servers <name>",
	Short:             "Show per-server results from the last benchmark",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, err := appInstance.Profiles.Get(args[0])
		if err != nil {
			return err
		}

		history, err := appInstance.Storage.ProbeHistory(ctx, p.Name, len(p.Servers))
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Printf("No results for %s yet. Run: dnsjumper test\n", p.Name)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SERVER\tLATENCY\tSTATUS\tTIME")
		fmt.Fprintln(w, "------\t-------\t------\t----")
		for _, rec := range history {
			latStr := "N/A"
			if rec.LatencyMS != nil {
				latStr = fmt.Sprintf("%d ms", *rec.LatencyMS)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				rec.Server, latStr, rec.Status, rec.TestedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	testCmd.Flags().Int64P("workers", "w", 10, "max in-flight probes across the run")
	testCmd.Flags().Int64P("timeout", "t", 2000, "per-probe timeout in milliseconds")
	testCmd.Flags().IntP("attempts", "a", 1, "queries per server; the best latency wins")

	testCmd.AddCommand(testServersCmd)
	rootCmd.AddCommand(testCmd)
}

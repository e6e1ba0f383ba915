package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"dnsjumper/internal/bench"
	"dnsjumper/internal/probe"
	"dnsjumper/internal/profile"
)

// daemonCmd runs periodic background benchmarks so the latency history in
// the database stays fresh. It blocks until interrupted.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run periodic background benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetInt("interval")

		cfg := appInstance.Config.Get()
		if !cmd.Flags().Changed("interval") {
			interval = cfg.BenchmarkInterval
		}

		log.SetHandler(clihandler.New(os.Stderr))
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}

		prober := probe.New(cfg.QueryName, cfg.Timeout(), cfg.Attempts)
		runner := bench.NewRunner(prober, appInstance.Storage, bench.RunnerConfig{
			Workers: cfg.Workers,
			Epsilon: cfg.Epsilon(),
		})

		profiles := func() []profile.Profile {
			return appInstance.Profiles.List()
		}

		scheduler, err := bench.NewScheduler(runner, profiles, time.Duration(interval)*time.Second)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		log.WithField("interval", (time.Duration(interval) * time.Second).String()).Info("benchmark daemon started")

		<-ctx.Done()
		log.Info("shutting down")
		return scheduler.Stop()
	},
}

func init() {
	daemonCmd.Flags().Int("interval", 3600, "seconds between benchmark runs")
	rootCmd.AddCommand(daemonCmd)
}

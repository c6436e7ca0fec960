package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edigermatthew/wonder-alt/host/backfill"
	logpkg "github.com/edigermatthew/wonder-alt/host/logger"
	"github.com/edigermatthew/wonder-alt/host/wpclient"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBackfillCmd(configPath *string) *cobra.Command {
	var (
		baseURL     string
		username    string
		password    string
		dryRun      bool
		perPage     int
		concurrency int
		ratePerSec  float64
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fill missing alt text on a remote WordPress site",
		Long: "Walk every image in a WordPress media library over the REST API and\n" +
			"write alt text generated from the title wherever none is set.\n" +
			"Authenticate with an application password.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("site") {
				baseURL = conf.GetString("WPBaseURL")
			}
			if !flags.Changed("user") {
				username = conf.GetString("WPUsername")
			}
			if !flags.Changed("password") {
				password = conf.GetString("WPAppPassword")
			}
			if !flags.Changed("concurrency") {
				concurrency = conf.GetInt("BackfillConcurrency")
			}
			if !flags.Changed("rate") {
				ratePerSec = conf.GetFloat64("BackfillRatePerSecond")
			}
			if baseURL == "" {
				return fmt.Errorf("site url required (--site or WPBaseURL)")
			}

			log := logpkg.NewWithWriter(cmd.ErrOrStderr(), logpkg.Options{
				Level:  conf.GetString("LogLevel"),
				Format: conf.GetString("LogFormat"),
			})
			client, err := wpclient.New(wpclient.Options{
				BaseURL:     baseURL,
				Username:    username,
				AppPassword: password,
				Timeout:     30 * time.Second,
				Logger:      log,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			start := time.Now()
			report, err := backfill.Run(ctx, client, backfill.Options{
				PerPage:       perPage,
				Concurrency:   concurrency,
				RatePerSecond: ratePerSec,
				DryRun:        dryRun,
				Logger:        log,
			})
			if report != nil {
				printReport(cmd, report, dryRun, time.Since(start))
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&baseURL, "site", "", "WordPress site url")
	f.StringVar(&username, "user", "", "WordPress username")
	f.StringVar(&password, "password", "", "WordPress application password")
	f.BoolVar(&dryRun, "dry-run", false, "report changes without writing them")
	f.IntVar(&perPage, "per-page", 50, "media items fetched per request")
	f.IntVar(&concurrency, "concurrency", 4, "parallel update requests")
	f.Float64Var(&ratePerSec, "rate", 2, "update requests per second")
	return cmd
}

func printReport(cmd *cobra.Command, report *backfill.Report, dryRun bool, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	for _, change := range report.Changes {
		fmt.Fprintf(out, "%s #%d %q -> %s\n", color.New(color.Faint).Sprint(verb), change.ID, change.Title, color.GreenString(change.Alt))
	}

	fmt.Fprintf(out, "\nScanned %d images in %s\n", report.Scanned, elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  %-13s %s\n", verb+":", color.GreenString("%d", report.Updated))
	fmt.Fprintf(out, "  %-13s %d\n", "had alt text:", report.Exists)
	fmt.Fprintf(out, "  %-13s %d\n", "no title:", report.Empty)
	if report.Failed > 0 {
		fmt.Fprintf(out, "  %-13s %s\n", "failed:", color.RedString("%d", report.Failed))
	}
}

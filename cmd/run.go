package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/ampclean/internal/config"
	"github.com/btraven00/ampclean/internal/runner"
	"github.com/btraven00/ampclean/internal/verifier"
	"github.com/btraven00/ampclean/internal/wiki"
)

var titlesFile string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean AMP links in a list of wiki articles",
	Long: `Run fetches every article named in the title list, rewrites AMP
citation URLs to their canonical form and saves the result.

The run stops early when the edit limit is reached or the kill switch page
no longer holds the expected value. Dry runs write the updated text to
amp_change.txt in the log directory instead of saving it.

Examples:
  ampclean run --titles titles.txt
  ampclean run --titles titles.txt --dry-run=false --max-edits 50 --cooldown 15s`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	titles, err := runner.ReadTitles(titlesFile)
	if err != nil {
		return err
	}

	sinks, err := runner.OpenFileSinks(cfg.Run.LogDir)
	if err != nil {
		return err
	}
	defer sinks.Close()

	client := wiki.NewClient(wiki.Options{
		APIURL:    cfg.Wiki.APIURL,
		UserAgent: cfg.Wiki.UserAgent,
		Timeout:   cfg.Wiki.Timeout,
	})

	opts := []runner.Option{
		runner.WithLogger(log),
		runner.WithCooldown(cfg.Run.Cooldown),
		runner.WithSummary(cfg.Wiki.Summary),
	}

	if cfg.KillSwitch.Enabled() {
		opts = append(opts, runner.WithKillSwitch(runner.PageSwitch{
			Reader: client,
			Page:   cfg.KillSwitch.Page,
			Value:  cfg.KillSwitch.Value,
		}))
	}

	prober := verifier.NewHTTPProber(cfg.Probe.Timeout, cfg.Probe.UserAgent)
	r := runner.New(client, prober, opts...)
	rc := runner.NewRunContext(cfg.Run.MaxEdits, cfg.Run.DryRun, sinks)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := r.Run(ctx, rc, titles)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if outErr := writeSummary(cmd.OutOrStdout(), summary, cfg); outErr != nil {
		return fmt.Errorf("failed to output result: %w", outErr)
	}

	return err
}

func writeSummary(w io.Writer, summary runner.Summary, cfg *config.Config) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	mode := "live"
	if cfg.Run.DryRun {
		mode = "dry-run"
	}

	fmt.Fprintf(w, "Run %s (%s)\n", summary.RunID, mode)
	fmt.Fprintf(w, "  stopped:   %s\n", summary.Stop)
	fmt.Fprintf(w, "  processed: %d\n", summary.Processed)
	fmt.Fprintf(w, "  edited:    %d\n", summary.Edited)
	fmt.Fprintf(w, "  failed:    %d\n", summary.Failed)
	fmt.Fprintf(w, "  logs:      %s\n", cfg.Run.LogDir)

	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&titlesFile, "titles", "", "file with one article title per line")
	runCmd.Flags().Int("max-edits", 0, "stop after this many edits (0 means unlimited)")
	runCmd.Flags().Bool("dry-run", true, "write updated text to the change log instead of saving (--dry-run=false to save)")
	runCmd.Flags().Duration("cooldown", 0, "minimum delay between saved edits")
	runCmd.Flags().String("log-dir", "", "directory for the run logs")
	cobra.CheckErr(runCmd.MarkFlagRequired("titles"))

	cobra.CheckErr(viper.BindPFlag("run.max_edits", runCmd.Flags().Lookup("max-edits")))
	cobra.CheckErr(viper.BindPFlag("run.dry_run", runCmd.Flags().Lookup("dry-run")))
	cobra.CheckErr(viper.BindPFlag("run.cooldown", runCmd.Flags().Lookup("cooldown")))
	cobra.CheckErr(viper.BindPFlag("run.log_dir", runCmd.Flags().Lookup("log-dir")))
}

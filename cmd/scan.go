package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/ampclean/internal/markup"
	"github.com/btraven00/ampclean/internal/verifier"
)

var (
	scanOut     string
	scanNoProbe bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Rewrite AMP links in a local wikitext file",
	Long: `Scan runs the same rewrite as the bot over a local wikitext file and
prints every URL decision. Nothing is sent to the wiki.

With --no-probe every URL is assumed to resolve, so all AMP URLs are
rewritten without HTTP requests.

Examples:
  ampclean scan article.wiki
  ampclean scan article.wiki --out cleaned.wiki
  ampclean scan --no-probe -o json article.wiki`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// ScanReport is the JSON form of a scan.
type ScanReport struct {
	File         string              `json:"file"`
	Changed      bool                `json:"changed"`
	Replacements int                 `json:"replacements"`
	Unsafe       int                 `json:"unsafe"`
	Records      []markup.EditRecord `json:"records"`
}

func runScan(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var prober verifier.Prober = verifier.Static{Fallback: 200}
	if !scanNoProbe {
		prober = verifier.NewHTTPProber(viper.GetDuration("probe.timeout"), viper.GetString("probe.user_agent"))
	}

	rewriter := markup.NewRewriter(prober, nil)

	result, err := rewriter.Rewrite(cmd.Context(), path, string(data))
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", path, err)
	}

	if scanOut != "" {
		if err := os.WriteFile(scanOut, []byte(result.Text), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", scanOut, err)
		}
	}

	report := ScanReport{
		File:         path,
		Changed:      result.Changed,
		Replacements: result.Replacements,
		Unsafe:       result.Unsafe,
		Records:      result.Records,
	}

	if err := outputScan(cmd.OutOrStdout(), report, result.Text); err != nil {
		return fmt.Errorf("failed to output result: %w", err)
	}

	return nil
}

func outputScan(w io.Writer, report ScanReport, text string) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if !quiet {
		for _, record := range report.Records {
			fmt.Fprintln(w, record.String())
		}

		fmt.Fprintf(w, "%d replacement(s), %d ambiguous occurrence(s) left unchanged\n", report.Replacements, report.Unsafe)
	}

	// Without --out the cleaned text goes to stdout.
	if scanOut == "" && report.Changed {
		fmt.Fprint(w, text)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanOut, "out", "", "write the rewritten text to this file")
	scanCmd.Flags().BoolVar(&scanNoProbe, "no-probe", false, "assume every URL resolves")
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/ampclean/internal/ampurl"
	"github.com/btraven00/ampclean/internal/resolver"
	"github.com/btraven00/ampclean/internal/verifier"
)

var (
	noProbeFlag bool
	workersFlag int
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <url>...",
	Short: "Classify URLs and show their canonical form",
	Long: `Check reports whether each URL is an AMP URL, which evidence
identified it and what its canonical form is. Unless --no-probe is set,
both URLs are probed and the rewrite decision is shown.

Examples:
  ampclean check https://amp.theguardian.com/world/2020/story
  ampclean check --no-probe "https://example.com/news/story.amp.html"
  ampclean check -o json https://www.bbc.co.uk/news/amp/world-1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

// CheckResult is the outcome of checking one URL.
type CheckResult struct {
	URL             string               `json:"url"`
	IsAMP           bool                 `json:"is_amp"`
	Evidence        []string             `json:"evidence,omitempty"`
	Canonical       string               `json:"canonical"`
	Disposition     resolver.Disposition `json:"disposition,omitempty"`
	Final           string               `json:"final,omitempty"`
	OriginalStatus  string               `json:"original_status,omitempty"`
	CandidateStatus string               `json:"candidate_status,omitempty"`
	Error           string               `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	var prober verifier.Prober
	if !noProbeFlag {
		prober = verifier.NewHTTPProber(viper.GetDuration("probe.timeout"), viper.GetString("probe.user_agent"))
	}

	raws := make([]string, len(args))
	for i, arg := range args {
		raws[i] = cleanupArgument(arg)
	}

	results := checkURLs(cmd.Context(), prober, raws, workersFlag)

	if err := outputResults(cmd.OutOrStdout(), results); err != nil {
		return fmt.Errorf("failed to output result: %w", err)
	}

	return nil
}

// checkURLs classifies every URL and, when prober is set, probes the AMP
// ones and their canonical forms concurrently before resolving each rewrite.
func checkURLs(ctx context.Context, prober verifier.Prober, raws []string, workers int) []CheckResult {
	results := make([]CheckResult, len(raws))

	var targets []string
	for i, raw := range raws {
		results[i] = classifyURL(raw)
		if results[i].probeable() {
			targets = append(targets, raw, results[i].Canonical)
		}
	}

	if prober == nil || len(targets) == 0 {
		return results
	}

	outcomes := verifier.ProbeAll(ctx, prober, targets, workers)

	for i := range results {
		if !results[i].probeable() {
			continue
		}

		original := outcomes[results[i].URL]
		candidate := outcomes[results[i].Canonical]
		decision := resolver.Resolve(results[i].URL, results[i].Canonical, original, candidate)

		results[i].Disposition = decision.Disposition
		results[i].Final = decision.URL
		results[i].OriginalStatus = original.Status()
		results[i].CandidateStatus = candidate.Status()
	}

	return results
}

// classifyURL reports the AMP evidence and canonical form of raw.
func classifyURL(raw string) CheckResult {
	result := CheckResult{URL: raw, Canonical: raw}

	u, err := ampurl.Parse(raw)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	signal := ampurl.Classify(u)
	result.IsAMP = signal.IsAMP
	for _, ev := range signal.Evidence {
		result.Evidence = append(result.Evidence, fmt.Sprintf("%s: %s", ev.Kind, ev.Match))
	}

	if signal.IsAMP {
		result.Canonical = ampurl.Normalize(u).String()
	}

	return result
}

func (r CheckResult) probeable() bool {
	return r.Error == "" && r.IsAMP
}

func outputResults(w io.Writer, results []CheckResult) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		fmt.Fprintf(w, "%s\n", r.URL)

		if r.Error != "" {
			fmt.Fprintf(w, "  error:     %s\n", r.Error)
			continue
		}

		if !r.IsAMP {
			fmt.Fprintln(w, "  not an AMP URL")
			continue
		}

		fmt.Fprintf(w, "  evidence:  %s\n", strings.Join(r.Evidence, ", "))
		fmt.Fprintf(w, "  canonical: %s\n", r.Canonical)

		if r.Disposition != "" {
			fmt.Fprintf(w, "  result:    %s (original %s, canonical %s)\n", r.Disposition, r.OriginalStatus, r.CandidateStatus)
			if !quiet {
				fmt.Fprintf(w, "  keep:      %s\n", r.Final)
			}
		}
	}

	return nil
}

// cleanupArgument trims whitespace, wrapping quotes or angle brackets and
// trailing sentence punctuation from a URL pasted on the command line.
func cleanupArgument(arg string) string {
	arg = strings.TrimSpace(arg)
	arg = strings.Trim(arg, `"'<>`)

	if i := strings.IndexAny(arg, " \t\n"); i >= 0 {
		arg = arg[:i]
	}

	return strings.TrimRight(arg, ".,;:!?)]}")
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&noProbeFlag, "no-probe", false, "classify and normalize only, without HTTP requests")
	checkCmd.Flags().IntVarP(&workersFlag, "workers", "w", verifier.DefaultWorkers, "number of concurrent probes")
}

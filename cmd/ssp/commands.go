package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"SSPCommandCenter/internal/model"
	"SSPCommandCenter/internal/notifier"
	"SSPCommandCenter/internal/scoring"
	"SSPCommandCenter/internal/seed"
	"SSPCommandCenter/internal/tagger"
	"SSPCommandCenter/internal/weights"
)

func newRecomputeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Score every opportunity once and print the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.sched.Recompute(cmd.Context())
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
}

func printRun(out io.Writer, run *model.ScoreRun) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HEAT\tOPPORTUNITY\tSTATE\tSTAGE\tAMOUNT\tSIGNALS")
	for _, r := range run.Results {
		heat := "n/a"
		if r.Score != nil {
			heat = fmt.Sprint(*r.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			heat, r.Name, r.State, r.Stage, notifier.FormatMoney(r.Amount), r.SignalCount)
	}
	tw.Flush()
	fmt.Fprintf(out, "\nrun %s: %d scored, %d unavailable (weights: %s)\n",
		run.ID, len(run.Results)-run.Failures(), run.Failures(), run.WeightsSource)
}

func newDigestCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Recompute and post the daily digest to Teams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.sched.Recompute(cmd.Context()); err != nil {
				return err
			}
			d, err := a.sched.SendDigest(cmd.Context(), dryRun)
			if d != nil && (dryRun || !a.notifier.Enabled()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", d.Title, d.Text)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of posting it")
	return cmd
}

func newScoreCmd(opts *rootOptions) *cobra.Command {
	var oppPath, signalsPath string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one opportunity from JSON files and print the breakdown",
		Long: `Score a single opportunity against a list of signals.

Signals without tags are tagged first, as at ingestion.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			defer log.Sync()

			var opp model.Opportunity
			if err := readJSONFile(oppPath, &opp); err != nil {
				return err
			}
			var signals []model.Signal
			if signalsPath != "" {
				if err := readJSONFile(signalsPath, &signals); err != nil {
					return err
				}
			}
			for i := range signals {
				tagger.Tag(&signals[i])
			}

			w, err := weights.NewLoader(weights.SourceFor(cfg.Scoring.WeightsPath)).Load()
			if err != nil {
				return err
			}
			res, err := scoring.NewEngine(w).Evaluate(&opp, signals)
			if err != nil {
				return err
			}
			printBreakdown(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&oppPath, "opportunity", "", "path to an opportunity JSON file")
	cmd.Flags().StringVar(&signalsPath, "signals", "", "path to a JSON array of signals")
	_ = cmd.MarkFlagRequired("opportunity")
	return cmd
}

func printBreakdown(out io.Writer, res *model.ScoreResult) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTOR\tCONTRIBUTION\tNOTE")
	for _, f := range res.Factors {
		fmt.Fprintf(tw, "%s\t%+.2f\t%s\n", f.Name, f.Contribution, f.Commentary)
	}
	tw.Flush()
	fmt.Fprintf(out, "\nscore %d (raw %.2f, %d signals)\n", res.Score, res.Raw, res.SignalCount)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func newTagCmd() *cobra.Command {
	var title, summary string
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Classify a signal title and summary into tags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags := tagger.ClassifySignalTags(title, summary)
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no tags)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "signal title")
	cmd.Flags().StringVar(&summary, "summary", "", "signal summary")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		accounts, perAccount int
		seedValue            int64
		dir                  string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write sample accounts and opportunities to the data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				cfg, log, err := loadConfig(cmd, opts)
				if err != nil {
					return err
				}
				defer log.Sync()
				dir = cfg.Data.Dir
			}
			if !cmd.Flags().Changed("seed") {
				seedValue = time.Now().UnixNano()
			}

			d, err := seed.Generate(rand.New(rand.NewSource(seedValue)), accounts, perAccount, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := seed.Write(dir, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d accounts and %d opportunities to %s\n",
				len(d.Accounts), len(d.Opportunities), dir)
			return nil
		},
	}
	cmd.Flags().IntVar(&accounts, "accounts", 20, "number of accounts")
	cmd.Flags().IntVar(&perAccount, "per-account", 2, "opportunities per account")
	cmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: data.dir from config)")
	return cmd
}

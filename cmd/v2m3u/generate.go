// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/v2m3u/internal/config"
	"github.com/ManuGH/v2m3u/internal/jobs"
)

type generateOptions struct {
	outputDir string
	policy    string
	noGuide   bool
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch all origins once and write the playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := ctx.load()
			if err != nil {
				return err
			}
			cfg, err = opts.apply(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runGenerate(runCtx, cmd.OutOrStdout(), cfg, jobs.Refresh)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Override the output directory")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "Override the dedup policy (drop|disambiguate)")
	cmd.Flags().BoolVar(&opts.noGuide, "no-guide", false, "Skip guide matching")
	return cmd
}

func (o generateOptions) apply(cfg config.AppConfig) (config.AppConfig, error) {
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if o.policy != "" {
		cfg.DedupPolicy = o.policy
	}
	if o.noGuide {
		cfg.GuideMatching = false
	}
	config.Normalize(&cfg)
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runGenerate(ctx context.Context, out io.Writer, cfg config.AppConfig, refresh jobs.RefreshFunc) error {
	status, err := refresh(ctx, cfg)
	if status != nil {
		printStatus(out, status)
	}
	return err
}

func printStatus(out io.Writer, st *jobs.Status) {
	if len(st.Origins) > 0 {
		rows := make([][]string, 0, len(st.Origins))
		for _, o := range st.Origins {
			rows = append(rows, []string{o.Origin, strconv.Itoa(o.Accepted), strconv.Itoa(o.Skipped), o.Error})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Origin", "Accepted", "Skipped", "Error"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	if len(st.Files) > 0 {
		rows := make([][]string, 0, len(st.Files))
		for _, f := range st.Files {
			country := f.Country
			if country == "" {
				country = "(all)"
			}
			rows = append(rows, []string{country, f.Name, strconv.Itoa(f.Channels)})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Country", "File", "Channels"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight},
		))
	}

	if st.Guides.Loaded+st.Guides.Failed > 0 {
		fmt.Fprintf(out, "guides: %d loaded, %d failed, %d entries; matches: %d confident, %d accepted, %d none\n",
			st.Guides.Loaded, st.Guides.Failed, st.Guides.Entries,
			st.Guides.Matches["confident"], st.Guides.Matches["accepted"], st.Guides.Matches["none"])
	}
	if st.Error != "" {
		fmt.Fprintf(out, "refresh failed after %s: %s\n", st.Duration.Round(time.Millisecond), st.Error)
		return
	}
	fmt.Fprintf(out, "%d channels in %d countries written in %s\n", st.Channels, st.Countries, st.Duration.Round(time.Millisecond))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deadline-tracker/internal/cache"
	"github.com/pdiddy/deadline-tracker/internal/canvas"
	"github.com/pdiddy/deadline-tracker/internal/convert"
	"github.com/pdiddy/deadline-tracker/internal/extract"
	"github.com/pdiddy/deadline-tracker/internal/notify"
	"github.com/pdiddy/deadline-tracker/internal/pipeline"
	"github.com/pdiddy/deadline-tracker/internal/report"
	"github.com/pdiddy/deadline-tracker/internal/search"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape Canvas once and write the deadline report",
	Long: `Run authenticates with Canvas, processes every enrolled course, and
writes deadlines.json and deadlines.md to the output directory. When the
previous snapshot differs, changes.json is written and a summary is sent to
Telegram if a bot is configured.

Failed downloads, unreadable documents, and unusable model replies are
logged and skipped; the run continues with the rest.`,
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("display", false, "render the report in the terminal after the run")
	cmd.Flags().String("search", "", "only show deadlines matching these keywords (comma-separated)")
	cmd.Flags().String("output-dir", "", "directory for deadlines.json, deadlines.md, changes.json")
	cmd.Flags().Bool("no-cache", false, "re-download files and ignore cached extractions")
}

// loadConfig resolves the configuration and applies flag overrides shared
// by run and watch.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg, err := buildConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return types.Config{}, err
	}
	if f := cmd.Flags().Lookup("output-dir"); f != nil && f.Changed {
		cfg.Output.Dir = f.Value.String()
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	noCache, _ := cmd.Flags().GetBool("no-cache")
	display, _ := cmd.Flags().GetBool("display")
	keywords, _ := cmd.Flags().GetString("search")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runner, closeFn, err := newRunner(ctx, cfg, pipeline.Options{NoCache: noCache}, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Extracted %d deadline(s) from %d course(s)", len(res.Deadlines), res.Stats.Courses)
	if res.Changes != nil && !res.Changes.IsEmpty() {
		fmt.Fprintf(os.Stderr, ", %d change(s) since last run", res.Changes.Total())
	}
	fmt.Fprintln(os.Stderr)

	q := search.ParseQuery(keywords)
	if !display && q.IsEmpty() {
		return nil
	}
	return show(os.Stdout, res.Deadlines, res.Changes, q, display)
}

// show writes the report for the records matching q, rendered for the
// terminal when styled is set.
func show(w io.Writer, records []types.Deadline, changes *types.ChangeSet, q search.Query, styled bool) error {
	md := report.Render(search.Filter(records, q), search.FilterChanges(changes, q), report.Options{})
	if styled {
		out, err := report.Terminal(md, 0)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}

// newRunner wires the production collaborators. The returned func releases
// the extraction cache.
func newRunner(ctx context.Context, cfg types.Config, opts pipeline.Options, logger *zap.Logger) (*pipeline.Runner, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	canvasClient, modelClient := httpClients(cfg)
	backend, err := extract.NewBackend(ctx, cfg.Extraction.AIConfig, modelClient, cfg.Canvas.RateLimitRetries)
	if err != nil {
		return nil, nil, err
	}

	runner := &pipeline.Runner{
		Canvas:    canvas.NewClient(cfg.Canvas, canvasClient),
		Text:      convert.Detect(cfg.Conversion, nil, logger),
		Extractor: extract.New(backend, cfg.Extraction, logger),
		Config:    cfg,
		Options:   opts,
		Logger:    logger,
	}

	closeFn := func() {}
	if cfg.Extraction.CachePath != "" {
		store, err := cache.Open(cfg.Extraction.CachePath)
		if err != nil {
			logger.Warn("extraction cache disabled", zap.Error(err))
		} else {
			runner.Cache = store
			closeFn = func() { _ = store.Close() }
		}
	}

	n, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		logger.Warn("telegram notifications disabled", zap.Error(err))
	} else if n != nil {
		runner.Notifier = n
	}

	return runner, closeFn, nil
}

// httpClients returns the Canvas client, bounded by the configured timeout,
// and the model client, which has no client-side timeout.
func httpClients(cfg types.Config) (canvasClient, modelClient *http.Client) {
	return &http.Client{Timeout: cfg.Canvas.Timeout}, &http.Client{}
}

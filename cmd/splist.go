package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mabhi256/hangdiag/internal/html"
	"github.com/mabhi256/hangdiag/internal/snapshot"
	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/internal/store"
	"github.com/mabhi256/hangdiag/internal/tui"
	"github.com/mabhi256/hangdiag/utils"
)

var (
	splistOutput string
	splistOut    string
	splistServe  string
	splistJobs   int
)

var splistOutputs = []string{"cli", "tui", "html", "sqlite"}

const defaultFindingsDB = "splist-findings.db"

var splistCmd = &cobra.Command{
	Use:   "splist",
	Short: "Find threads blocked on expensive SharePoint list queries",
}

var splistAnalyzeCmd = &cobra.Command{
	Use:               "analyze [dump-file]...",
	Short:             "Analyze dumps for large, all-field and unbounded SPList queries",
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(snapshot.Extensions),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Validate output flag
		if !slices.Contains(splistOutputs, splistOutput) {
			return fmt.Errorf("invalid output format: %s. Valid options: %v", splistOutput, splistOutputs)
		}
		if splistServe != "" && splistOutput != "html" {
			return fmt.Errorf("--serve requires -o html")
		}
		if splistJobs < 1 {
			return fmt.Errorf("invalid jobs: %d", splistJobs)
		}

		// Check files exist
		for _, dump := range args {
			if _, err := os.Stat(dump); os.IsNotExist(err) {
				return fmt.Errorf("file does not exist: %s", dump)
			}
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runSplistAnalyze(ctx, cmd.OutOrStdout(), args)
	},
}

func newSplistAnalyzer() *splist.Analyzer {
	return splist.NewAnalyzer(cfg.Rule,
		splist.WithLogger(logger),
		splist.WithHighlightColor(cfg.Report.HighlightColor),
		splist.WithTitle(cfg.Report.Title),
	)
}

func runSplistAnalyze(ctx context.Context, stdout io.Writer, dumps []string) error {
	analyzer := newSplistAnalyzer()
	progress := newProgressLog(os.Stderr)

	switch splistOutput {
	case "tui":
		// log lines would tear the alt screen
		analyzer = splist.NewAnalyzer(cfg.Rule,
			splist.WithHighlightColor(cfg.Report.HighlightColor),
			splist.WithTitle(cfg.Report.Title),
		)
		return tui.Run(ctx, dumps, func(ctx context.Context, progressFor func(string) splist.Progress) ([]*splist.Result, error) {
			return analyzeDumps(ctx, analyzer, dumps, discardSinks(len(dumps)), progressFor)
		})

	case "html":
		docs := make([]*html.Document, len(dumps))
		sinks := make([]splist.Sink, len(dumps))
		for i, dump := range dumps {
			docs[i] = html.NewDocument(reportTitle(dump))
			sinks[i] = docs[i]
		}

		if _, err := analyzeDumps(ctx, analyzer, dumps, sinks, progress.For); err != nil {
			return err
		}
		progress.Done(len(dumps))
		return writeHTMLReports(ctx, stdout, dumps, docs)

	case "sqlite":
		results, err := analyzeDumps(ctx, analyzer, dumps, discardSinks(len(dumps)), progress.For)
		if err != nil {
			return err
		}
		progress.Done(len(dumps))

		path := splistOut
		if path == "" {
			path = defaultFindingsDB
		}
		runID := uuid.NewString()
		if err := store.Export(path, runID, results...); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ Findings exported to %s (run %s)\n", path, runID)
		return nil

	default:
		results, err := analyzeDumps(ctx, analyzer, dumps, discardSinks(len(dumps)), progress.For)
		if err != nil {
			return err
		}
		progress.Done(len(dumps))
		for i, result := range results {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			result.PrintReport(stdout)
		}
		return nil
	}
}

// analyzeDumps loads and analyzes each dump into sinks[i], at most splistJobs
// at a time. Results keep argument order.
func analyzeDumps(ctx context.Context, analyzer *splist.Analyzer, dumps []string, sinks []splist.Sink,
	progressFor func(string) splist.Progress) ([]*splist.Result, error) {

	results := make([]*splist.Result, len(dumps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(splistJobs)

	for i, dump := range dumps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			snap, err := snapshot.Open(dump)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", dump, err)
			}
			logger.Debug("snapshot loaded", "dump", dump, "threads", len(snap.Threads), "frames", snap.FrameCount())

			result, err := analyzer.Run(snap, sinks[i], progressFor(dump))
			if err != nil {
				return fmt.Errorf("failed to analyze %s: %w", dump, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func discardSinks(n int) []splist.Sink {
	sinks := make([]splist.Sink, n)
	for i := range sinks {
		sinks[i] = splist.NewTextSink(io.Discard)
	}
	return sinks
}

func reportTitle(dump string) string {
	if cfg.Report.Title != "" {
		return cfg.Report.Title
	}
	return snapshot.ShortName(dump)
}

func writeHTMLReports(ctx context.Context, stdout io.Writer, dumps []string, docs []*html.Document) error {
	pages := make([]html.Page, len(docs))
	names := make([]string, len(dumps))
	for i, dump := range dumps {
		names[i] = snapshot.ShortName(dump)
	}
	paths := html.ReportPaths(splistOut, names)

	for i, doc := range docs {
		written, err := html.WriteReport(doc, paths[i])
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ HTML report written to %s\n", written)

		pages[i] = html.Page{Name: names[i], Content: doc.Render()}
	}

	if splistServe == "" {
		return nil
	}
	fmt.Fprintf(stdout, "🌐 Serving on http://%s (Ctrl+C to stop)\n", splistServe)
	return html.Serve(ctx, splistServe, html.NewHandler(pages), logger)
}

func init() {
	rootCmd.AddCommand(splistCmd)

	splistCmd.AddCommand(splistAnalyzeCmd)

	flags := splistAnalyzeCmd.Flags()
	flags.StringVarP(&splistOutput, "output", "o", "cli", "Output format (cli, tui, html, sqlite)")
	flags.StringVar(&splistOut, "out", "", "HTML report or SQLite database path")
	flags.StringVar(&splistServe, "serve", "", "Serve the HTML report on this address, e.g. localhost:8080")
	flags.IntVarP(&splistJobs, "jobs", "j", runtime.NumCPU(), "Max dumps analyzed in parallel")

	// When user types: hangdiag splist analyze dump.hprof -o <TAB>
	splistAnalyzeCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return splistOutputs, cobra.ShellCompDirectiveNoFileComp
	})
	splistAnalyzeCmd.RegisterFlagCompletionFunc("out", utils.CompleteFilesByExtension([]string{".html", ".db"}))
}

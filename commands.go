package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shortform-signals/config"
	"shortform-signals/models"
	"shortform-signals/services"
	"shortform-signals/storage"
	"shortform-signals/utils"
)

type commandContext struct {
	envFile string
	cfg     *config.Config
	logger  *utils.Logger
}

func (c *commandContext) ensureConfig() error {
	if c.cfg != nil {
		return nil
	}
	c.logger = utils.NewLogger()
	cfg := config.Load(c.envFile)
	if err := c.logger.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *commandContext) openStore() (*storage.SQLWriter, error) {
	return storage.NewSQLWriter(c.cfg.StoreDriver, c.cfg.DSN(), &utils.RetryConfig{
		MaxAttempts: c.cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      c.logger,
	})
}

func (c *commandContext) loadCSV() (*models.Dataset, error) {
	return storage.NewCSVReader(c.logger).LoadDataset(c.cfg.VideosFile, c.cfg.CreatorsFile, c.cfg.PlatformsFile)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "shortform-signals",
		Short:         "Short-form video performance analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.ensureConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&ctx.envFile, "env", "", "Path to a .env file")

	rootCmd.AddCommand(newLoadCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	return rootCmd
}

func newLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load CSV files, derive metrics and store them in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.logger
			ds, err := ctx.loadCSV()
			if err != nil {
				return err
			}
			if warnings := services.NewValidator(logger).Validate(ds); len(warnings) > 0 {
				logger.Warn("Proceeding with %d validation issues", len(warnings))
			}

			analyzer := services.NewAnalyzer(ds, logger)

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Write(analyzer.Rows(), ds.Creators, ds.Platforms); err != nil {
				return err
			}
			logger.Info("Data loaded into %s (tables: shortform_videos, shortform_creators, shortform_platforms)", ctx.cfg.StoreDriver)

			services.NewReportPrinter(cmd.OutOrStdout()).DataSummary(analyzer.DataSummary())
			return nil
		},
	}
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		fromDB   bool
		persist  bool
		clusters int
		seed     int64
		top      int
		metric   string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *ctx.cfg
			if cmd.Flags().Changed("clusters") {
				cfg.ClusterCount = clusters
			}
			if cmd.Flags().Changed("seed") {
				cfg.ClusterSeed = seed
			}
			if cmd.Flags().Changed("top") {
				cfg.TopN = top
			}
			if cmd.Flags().Changed("metric") {
				cfg.TopMetric = metric
			}
			if cmd.Flags().Changed("out") {
				cfg.OutputDir = outDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runAnalysis(cmd, ctx, &cfg, fromDB, persist)
		},
	}

	cmd.Flags().BoolVar(&fromDB, "from-db", false, "Read the dataset from the database instead of CSV files")
	cmd.Flags().BoolVar(&persist, "persist", false, "Store the dataset and a run record in the database")
	cmd.Flags().IntVar(&clusters, "clusters", 4, "Number of performance clusters")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Clustering seed")
	cmd.Flags().IntVar(&top, "top", 10, "Rows in top-N rankings")
	cmd.Flags().StringVar(&metric, "metric", "retention_rate", "Metric for the top videos ranking")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for CSV exports")
	return cmd
}

func runAnalysis(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, fromDB, persist bool) error {
	logger := ctx.logger

	var store *storage.SQLWriter
	if fromDB || persist {
		s, err := ctx.openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	var ds *models.Dataset
	var err error
	if fromDB {
		ds, err = store.FetchDataset()
	} else {
		ds, err = ctx.loadCSV()
	}
	if err != nil {
		return err
	}

	warnings := services.NewValidator(logger).Validate(ds)
	analyzer := services.NewAnalyzer(ds, logger)
	p := services.NewReportPrinter(cmd.OutOrStdout())
	exporter := storage.NewExporter(cfg.OutputDir)

	p.Banner("SHORTFORM VIDEO ANALYSIS REPORT  run " + analyzer.RunID)

	// Each analysis is independent: a failure is reported and the rest still run.
	if s, err := analyzer.FormatPerformance(); report(logger, "format performance", err) {
		p.Summary("Format Performance", s)
		export(logger, func() (string, error) { return exporter.Summary("format_performance", s) })
	}
	if s, err := analyzer.CreatorRanking(cfg.TopN); report(logger, "creator ranking", err) {
		p.Summary("Top Creators", s)
		export(logger, func() (string, error) { return exporter.Summary("creator_ranking", s) })
	}
	if s, err := analyzer.NicheAnalysis(); report(logger, "niche analysis", err) {
		p.Summary("Niche Analysis", s)
		export(logger, func() (string, error) { return exporter.Summary("niche_analysis", s) })
	}
	if s, err := analyzer.TopNiches(models.ColEngagementRate, cfg.TopN); report(logger, "top niches", err) {
		p.Summary("Top Niches by Engagement", s)
	}
	if s, err := analyzer.DurationAnalysis(); report(logger, "duration analysis", err) {
		p.Summary("Duration Analysis", s)
		export(logger, func() (string, error) { return exporter.Summary("duration_analysis", s) })
	}
	if m, err := analyzer.Correlation(); report(logger, "correlation analysis", err) {
		p.Correlation("Metric Correlations", m)
		export(logger, func() (string, error) { return exporter.Correlation(m) })
	}

	var assignments []int
	if res, err := analyzer.Clusters(cfg.ClusterCount, cfg.ClusterSeed); report(logger, "clustering", err) {
		assignments = res.Assignments
		p.Summary(fmt.Sprintf("Performance Clusters (k=%d, seed=%d)", res.K, res.Seed), res.Summary)
		export(logger, func() (string, error) { return exporter.Summary("clusters", res.Summary) })
	}

	if proj, err := analyzer.TopPerformers(cfg.TopMetric, cfg.TopN); report(logger, "top performers", err) {
		p.Projection("Top Performing Videos by "+cfg.TopMetric, proj)
	}

	p.Insights(analyzer.Insights())
	p.DataSummary(analyzer.DataSummary())

	rows := analyzer.Rows()
	export(logger, func() (string, error) {
		return exporter.Analysis(rows, services.BinDurations(rows), assignments)
	})

	if persist {
		if err := store.Write(rows, ds.Creators, ds.Platforms); err != nil {
			return err
		}
		if err := store.RecordRun(analyzer.RunInfo(len(warnings), cfg.ClusterCount, cfg.ClusterSeed)); err != nil {
			return err
		}
		logger.Info("Run %s stored in %s", analyzer.RunID, cfg.StoreDriver)
	}
	return nil
}

// report logs a failed analysis and returns whether its result is usable.
func report(logger *utils.Logger, name string, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, models.ErrInvalidParameter) || errors.Is(err, models.ErrMissingColumn) {
		logger.Error("Skipping %s: %v", name, err)
	} else {
		logger.Error("%s failed: %v", name, err)
	}
	return false
}

func export(logger *utils.Logger, fn func() (string, error)) {
	path, err := fn()
	if err != nil {
		logger.Error("Export failed: %v", err)
		return
	}
	logger.Info("Exported %s", path)
}

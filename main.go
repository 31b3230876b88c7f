package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"total-comp/config"
	"total-comp/models"
	"total-comp/server"
	"total-comp/services"
	"total-comp/storage"
	"total-comp/utils"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := utils.NewLoggerWith(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	rootCmd := &cobra.Command{
		Use:           "total-comp",
		Short:         "Explore total compensation survey responses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCmd(cfg, logger),
		optionsCmd(cfg, logger),
		exploreCmd(cfg, logger),
		lookupCmd(cfg, logger),
		exportCmd(cfg, logger),
		seedCmd(cfg, logger),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(version)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func serveCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger.Info("=== Total Compensation dashboard starting ===")
			logger.Info("Config: source: %s | retries: %d | timeout: %v", cfg.SourceKind, cfg.MaxRetries, cfg.FetchTimeout)

			responses, closeResponses, err := newCache(cfg, models.Responses, logger)
			if err != nil {
				return err
			}
			defer closeResponses()
			if _, err := responses.Get(ctx); err != nil {
				return errors.Wrap(err, "initial load of responses")
			}

			aggregates, closeAggregates, err := newCache(cfg, models.Aggregates, logger)
			if err != nil {
				return err
			}
			defer closeAggregates()

			var aggSource server.TableSource
			if aggregates != nil {
				if _, err := aggregates.Get(ctx); err != nil {
					return errors.Wrap(err, "initial load of aggregates")
				}
				aggSource = aggregates
			} else {
				logger.Warn("No aggregate dataset configured, lookup is disabled")
			}

			dash := server.NewDashboard(responses, aggSource, logger)
			return server.NewHTTPServer(dash, cfg.MetricsPath, logger).Start(ctx, addr)
		},
	}
	cmd.Flags().String("addr", cfg.HTTPAddr, "listen address (host:port)")
	return cmd
}

func optionsCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the filter values available in a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("dataset")
			dataset, err := parseDataset(name)
			if err != nil {
				return err
			}
			t, err := loadDataset(cmd.Context(), cfg, dataset, logger)
			if err != nil {
				return err
			}

			columns := append(append([]string(nil), models.FilterColumns...), models.ColTotalYOE)
			for _, col := range columns {
				opts, err := services.ExtractOptions(t, col)
				if err != nil {
					return err
				}
				fmt.Printf("%-16s %s\n", col, strings.Join(opts, " | "))
			}
			return nil
		},
	}
	cmd.Flags().String("dataset", string(models.Responses), "dataset: responses or aggregates")
	return cmd
}

func exploreCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Print statistics and distributions for a selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFromFlags(cmd)
			if err != nil {
				return err
			}
			t, err := loadDataset(cmd.Context(), cfg, models.Responses, logger)
			if err != nil {
				return err
			}

			reporter := services.NewReporter(os.Stdout)
			exp, err := services.NewExplorer(logger).Explore(t, sel)
			if models.IsNoData(err) {
				reporter.PrintNoData(err)
				return nil
			}
			if err != nil {
				return err
			}
			reporter.PrintExploration(exp)
			return nil
		},
	}
	addSelectionFlags(cmd)
	return cmd
}

func lookupCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up reference compensation for an exact combination",
		Example: "  total-comp lookup --filter LEVEL=Manager --filter SECTOR=Audit --filter GLOBAL_BUSINESS=USI \\\n" +
			"    --filter MEMBER_FIRM=FirmA --filter GENDER=Female --filter EDUCATION=Masters \\\n" +
			"    --filter HIRE_SOURCE=Campus --filter TOTAL_YOE=5",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, _ := cmd.Flags().GetStringArray("filter")
			values, err := parseFilterFlags(filters)
			if err != nil {
				return err
			}
			key, err := services.ParseKey(values)
			if err != nil {
				return err
			}
			t, err := loadDataset(cmd.Context(), cfg, models.Aggregates, logger)
			if err != nil {
				return err
			}

			reporter := services.NewReporter(os.Stdout)
			row, err := services.Lookup(t, key)
			if models.IsNoData(err) {
				reporter.PrintNoData(err)
				return nil
			}
			if err != nil {
				return err
			}
			reporter.PrintAggregate(row)
			return nil
		},
	}
	cmd.Flags().StringArray("filter", nil, "key part as COLUMN=value (repeatable, all eight required)")
	return cmd
}

func exportCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a filtered selection to CSV and/or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			xlsxPath, _ := cmd.Flags().GetString("xlsx")
			if csvPath == "" && xlsxPath == "" {
				return errors.New("export: at least one of --csv or --xlsx is required")
			}

			sel, err := selectionFromFlags(cmd)
			if err != nil {
				return err
			}
			t, err := loadDataset(cmd.Context(), cfg, models.Responses, logger)
			if err != nil {
				return err
			}
			if err := sel.Validate(t); err != nil {
				return err
			}
			filtered := sel.Active().Apply(t)

			if csvPath != "" {
				w, err := storage.NewCSVWriter(csvPath)
				if err != nil {
					return err
				}
				if err := w.Write(cmd.Context(), filtered); err != nil {
					_ = w.Close()
					return err
				}
				if err := w.Close(); err != nil {
					return err
				}
				logger.Info("Wrote %d rows to %s", filtered.Len(), csvPath)
			}
			if xlsxPath != "" {
				if err := storage.WriteXLSX(xlsxPath, services.Summarize(filtered), filtered); err != nil {
					return err
				}
				logger.Info("Wrote %d rows and summary to %s", filtered.Len(), xlsxPath)
			}
			return nil
		},
	}
	addSelectionFlags(cmd)
	cmd.Flags().String("csv", "", "write the filtered rows to this CSV path")
	cmd.Flags().String("xlsx", "", "write the summary and filtered rows to this XLSX path")
	return cmd
}

func seedCmd(cfg *config.Config, logger *utils.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy a dataset from its CSV source into PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("dataset")
			dataset, err := parseDataset(name)
			if err != nil {
				return err
			}

			loader, err := csvLoader(cfg, dataset, logger)
			if err != nil {
				return err
			}
			if loader == nil {
				return errors.Errorf("seed: no CSV source configured for %s", dataset)
			}
			t, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}

			store, err := storage.NewPostgresStore(cfg.DSN(), dataset)
			if err != nil {
				logger.Error("Make sure PostgreSQL is running: docker compose up -d")
				return err
			}
			defer store.Close()

			if err := store.Write(cmd.Context(), t); err != nil {
				return err
			}
			logger.Info("Stored %d %s rows in PostgreSQL (table: %s)", t.Len(), dataset, storage.TableName(dataset))
			return nil
		},
	}
	cmd.Flags().String("dataset", string(models.Responses), "dataset: responses or aggregates")
	return cmd
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("filter", nil, "filter as COLUMN=value (repeatable); value All disables the filter")
	cmd.Flags().String("yoe", "", "inclusive years-of-experience range, e.g. 3-6")
}

func selectionFromFlags(cmd *cobra.Command) (services.Selection, error) {
	filters, _ := cmd.Flags().GetStringArray("filter")
	values, err := parseFilterFlags(filters)
	if err != nil {
		return nil, err
	}
	if yoe, _ := cmd.Flags().GetString("yoe"); yoe != "" {
		values.Set(services.YOEParam, yoe)
	}
	return services.ParseSelection(values, models.FilterColumns)
}

func parseFilterFlags(filters []string) (url.Values, error) {
	values := url.Values{}
	for _, f := range filters {
		col, val, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, errors.Wrapf(models.ErrInvalidSelection, "filter %q is not COLUMN=value", f)
		}
		values.Set(strings.TrimSpace(col), strings.TrimSpace(val))
	}
	return values, nil
}

func parseDataset(name string) (models.Dataset, error) {
	switch d := models.Dataset(name); d {
	case models.Responses, models.Aggregates:
		return d, nil
	default:
		return "", errors.Errorf("unknown dataset %q (want responses or aggregates)", name)
	}
}

// loadDataset loads a dataset once for a one-shot command.
func loadDataset(ctx context.Context, cfg *config.Config, dataset models.Dataset, logger *utils.Logger) (*models.Table, error) {
	cache, closeFn, err := newCache(cfg, dataset, logger)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	if cache == nil {
		return nil, errors.Errorf("no source configured for %s", dataset)
	}
	return cache.Get(ctx)
}

// newCache builds the cache for dataset from the configured source kind. It
// returns a nil cache when the dataset has no source configured.
func newCache(cfg *config.Config, dataset models.Dataset, logger *utils.Logger) (*storage.Cache, func(), error) {
	noop := func() {}

	if cfg.SourceKind == config.SourcePostgres {
		store, err := storage.NewPostgresStore(cfg.DSN(), dataset)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := store.Close(); err != nil {
				logger.Warn("Closing PostgreSQL store: %v", err)
			}
		}
		return storage.NewCache(string(dataset), store, logger), closeFn, nil
	}

	loader, err := csvLoader(cfg, dataset, logger)
	if err != nil || loader == nil {
		return nil, noop, err
	}
	return storage.NewCache(string(dataset), loader, logger), noop, nil
}

// csvLoader returns the CSV loader for dataset, or nil when none is configured.
func csvLoader(cfg *config.Config, dataset models.Dataset, logger *utils.Logger) (storage.Loader, error) {
	cleaner := services.NewCleaner(logger)
	columns := dataset.Columns()

	switch cfg.SourceKind {
	case config.SourceFile, config.SourcePostgres:
		path := cfg.DataPath
		if dataset == models.Aggregates {
			path = cfg.AggregatePath
		}
		if path == "" {
			return nil, nil
		}
		if _, err := os.Stat(path); err != nil {
			if dataset == models.Aggregates && os.IsNotExist(err) {
				return nil, nil
			}
			return nil, errors.Wrapf(models.ErrSourceUnavailable, "stat %s: %v", path, err)
		}
		return services.NewCSVLoader(storage.NewFileSource(path), cleaner, columns), nil
	default:
		dataURL := cfg.DataURL
		if dataset == models.Aggregates {
			dataURL = cfg.AggregateURL
		}
		if dataURL == "" {
			return nil, nil
		}
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryDelay,
			Logger:      logger,
		}
		src := storage.NewHTTPSource(dataURL, cfg.FetchTimeout, retry, logger)
		return services.NewCSVLoader(src, cleaner, columns), nil
	}
}


// Command fedstat downloads demographic indicators from fedstat.ru and
// writes the processed tables as CSV, XLSX or into a SQLite database.
//
//	fedstat -id 31548 -filter 57831_1 -out births.xlsx
//	fedstat -id 31548 -pair 31549 -estimate-year 2018 -sqlite stats.db -table population
//	fedstat -id 31548 -catalog
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fedstatcli/internal/config"
	"fedstatcli/internal/dataprocessing"
	"fedstatcli/internal/exporter"
	"fedstatcli/internal/fedstat"
	"fedstatcli/internal/infrastructure"
	"fedstatcli/internal/services"
	"fedstatcli/internal/storage"
)

// filterList collects repeated -filter flags. Comma separated values are
// split as well.
type filterList []string

func (f *filterList) String() string { return strings.Join(*f, ",") }

func (f *filterList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*f = append(*f, part)
		}
	}
	return nil
}

type options struct {
	id           string
	pair         string
	estimateYear int
	filters      filterList
	out          string
	sqlite       string
	table        string
	catalog      bool
	render       bool
	configFile   string
	version      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("fedstat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.id, "id", "", "indicator id (required)")
	fs.StringVar(&opts.pair, "pair", "", "second indicator id; the two processed tables are summed")
	fs.IntVar(&opts.estimateYear, "estimate-year", 0, "year whose missing end values are estimated from -pair before summing")
	fs.Var(&opts.filters, "filter", "filter token category_value (repeatable)")
	fs.StringVar(&opts.out, "out", "", "output file (.csv or .xlsx); CSV goes to stdout when empty")
	fs.StringVar(&opts.sqlite, "sqlite", "", "SQLite database to save the table into")
	fs.StringVar(&opts.table, "table", "", "table name inside the SQLite database")
	fs.BoolVar(&opts.catalog, "catalog", false, "print the indicator title and filters as JSON and exit")
	fs.BoolVar(&opts.render, "render", false, "fetch indicator pages through a headless browser")
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return opts, nil
	}

	if opts.id == "" {
		return nil, errors.New("-id is required")
	}
	if opts.estimateYear != 0 && opts.pair == "" {
		return nil, errors.New("-estimate-year needs -pair")
	}
	if (opts.sqlite == "") != (opts.table == "") {
		return nil, errors.New("-sqlite and -table must be given together")
	}
	if opts.out != "" {
		if _, err := exporter.FormatFromPath(opts.out); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(config.GetVersionString())
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = infrastructure.NewLogger(os.Stderr, cfg.Logging.Level)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	src := fedstat.NewSource(cfg.FedStat, fedstat.WithSourceLogger(logger))
	if err := run(ctx, opts, cfg, src, logger, os.Stdout); err != nil {
		logger.Error("fedstat failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.render {
		cfg.FedStat.Render = true
	}
	// stdout carries data
	if cfg.Logging.Output != "file" {
		cfg.Logging.Output = "console"
	}
	return cfg, nil
}

func run(ctx context.Context, opts *options, cfg *config.Config, src fedstat.Source, logger *slog.Logger, stdout io.Writer) error {
	svcOpts := []services.ServiceOption{
		services.WithServiceLogger(logger),
		services.WithIndicatorOptions(fedstat.OptionsFromConfig(cfg.FedStat)...),
	}

	if opts.sqlite != "" {
		store, err := storage.Open(ctx, opts.sqlite)
		if err != nil {
			return err
		}
		defer store.Close()
		svcOpts = append(svcOpts, services.WithStore(store))
	}
	svc := services.NewIndicatorService(src, svcOpts...)

	if opts.catalog {
		info, err := svc.Describe(ctx, opts.id)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	table, source, err := fetch(ctx, svc, opts)
	if err != nil {
		return err
	}

	if opts.table != "" {
		if err := svc.Save(ctx, opts.table, source, table); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Table saved",
			slog.String("database", opts.sqlite),
			slog.String("table", opts.table),
			slog.Int("rows", table.Len()))
	}

	exp := exporter.NewTableExporter(nil, cfg.Export.BOMPrefix)
	switch {
	case opts.out != "":
		_, err = exp.Export(ctx, opts.out, table)
		return err
	case opts.table == "":
		return exp.WriteTo(stdout, exporter.FormatCSV, table)
	}
	return nil
}

func fetch(ctx context.Context, svc *services.IndicatorService, opts *options) (*dataprocessing.Table, string, error) {
	if opts.pair == "" {
		t, err := svc.Processed(ctx, services.DataRequest{
			IndicatorID: opts.id,
			Filters:     opts.filters,
		})
		return t, opts.id, err
	}
	t, err := svc.Combined(ctx, services.CombineRequest{
		First:        opts.id,
		Second:       opts.pair,
		EstimateYear: opts.estimateYear,
		Filters:      opts.filters,
	})
	return t, opts.id + "+" + opts.pair, err
}

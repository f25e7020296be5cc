// Package pipeline turns an uploaded price list into a standardized one:
// load, locate the header, clean, transform, export and store.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/price-standard/price-service/internal/cleaner"
	"github.com/price-standard/price-service/internal/exporter"
	"github.com/price-standard/price-service/internal/locator"
	"github.com/price-standard/price-service/internal/parsers/csv"
	"github.com/price-standard/price-service/internal/parsers/xlsx"
	"github.com/price-standard/price-service/internal/pkg/cuid2"
	"github.com/price-standard/price-service/internal/pricing"
	"github.com/price-standard/price-service/internal/storage"
	"github.com/price-standard/price-service/internal/telemetry"
	"github.com/price-standard/price-service/internal/types"
)

// Stage names reported in StageError, spans and metrics
const (
	StageConfigure = "configure"
	StageLoad      = "load"
	StageLocate    = "locate"
	StageClean     = "clean"
	StageTransform = "transform"
	StageExport    = "export"
	StageStore     = "store"
)

// DefaultOutputPrefix prefixes every generated file name
const DefaultOutputPrefix = "Прайс_Стандарт_"

// Config holds the run-independent pipeline settings
type Config struct {
	// Sheet selects the input worksheet. Empty means the active sheet.
	Sheet         string
	HeaderPolicy  locator.Policy
	ScanRows      int
	MinCodeLength int
	OutputPrefix  string
	Layout        exporter.Layout
	CSV           csv.LoaderOptions
}

// DefaultConfig returns the stock pipeline configuration
func DefaultConfig() Config {
	return Config{
		HeaderPolicy:  locator.PolicyStrict,
		ScanRows:      locator.DefaultScanRows,
		MinCodeLength: types.DefaultMinCodeLength,
		OutputPrefix:  DefaultOutputPrefix,
		Layout:        exporter.DefaultLayout(),
		CSV:           csv.DefaultOptions(),
	}
}

// Options are the per-run settings supplied by the caller
type Options struct {
	Discounts           types.DiscountSettings `json:"discounts"`
	RecalculateExisting bool                   `json:"recalculateExisting"`
}

// DefaultOptions returns the stock discounts without recalculation
func DefaultOptions() Options {
	return Options{Discounts: types.DefaultDiscountSettings()}
}

// Input is one uploaded document
type Input struct {
	Filename string
	Content  []byte
}

// Output is a rendered price list that has not been stored yet
type Output struct {
	Name     string
	Content  []byte
	Stats    types.ProcessingStats
	Location locator.Location
	Cleaning []cleaner.PassReport
}

// Inspection describes how a document would be read, without transforming it
type Inspection struct {
	Sheet     string               `json:"sheet"`
	TotalRows int                  `json:"totalRows"`
	HeaderRow int                  `json:"headerRow"`
	Header    []string             `json:"header"`
	Columns   types.ColumnMap      `json:"columns"`
	Cleaning  []cleaner.PassReport `json:"cleaning"`
	DataRows  int                  `json:"dataRows"`
}

// Pipeline runs price lists through every stage
type Pipeline struct {
	cfg        Config
	store      storage.Storage
	logger     *zerolog.Logger
	locator    *locator.Locator
	cleaner    *cleaner.Cleaner
	normalizer *pricing.Normalizer
	tracer     trace.Tracer
	rows       metric.Int64Counter

	// Now supplies the clock for document dates and output names
	Now func() time.Time
}

// New creates a pipeline. store may be nil when only Run and Inspect are used.
func New(cfg Config, store storage.Storage, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = DefaultOutputPrefix
	}
	if cfg.HeaderPolicy == "" {
		cfg.HeaderPolicy = locator.PolicyStrict
	}
	if cfg.Layout.SheetName == "" {
		cfg.Layout = exporter.DefaultLayout()
	}

	patterns := cleaner.DefaultPatterns()
	if cfg.MinCodeLength > 0 {
		patterns.MinCodeLength = cfg.MinCodeLength
	}

	rows, err := telemetry.Meter().Int64Counter(
		"price_standard.rows",
		metric.WithDescription("Data rows written to standardized price lists"),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create rows counter")
	}

	return &Pipeline{
		cfg:        cfg,
		store:      store,
		logger:     logger,
		locator:    locator.New(locator.DefaultKeywords(), cfg.HeaderPolicy, cfg.ScanRows),
		cleaner:    cleaner.New(patterns),
		normalizer: pricing.NewNormalizer(pricing.DefaultStatusRules()),
		tracer:     telemetry.Tracer(),
		rows:       rows,
		Now:        time.Now,
	}
}

type prepared struct {
	sheet    *types.Sheet
	location locator.Location
	rows     []types.Row
	cleaning []cleaner.PassReport
}

// Run executes every stage up to export and returns the rendered workbook
func (p *Pipeline) Run(ctx context.Context, in Input, opts Options) (*Output, error) {
	out, err := p.execute(ctx, in, opts)
	p.record(ctx, out, err)
	return out, err
}

// execute runs the stages inside the run span without recording the outcome
func (p *Pipeline) execute(ctx context.Context, in Input, opts Options) (*Output, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("file.name", in.Filename),
		attribute.Int("file.size", len(in.Content)),
	))
	defer span.End()

	out, err := p.run(ctx, in, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rows.processed", out.Stats.RowsProcessed),
		attribute.Int("rows.sale", out.Stats.RowsWithSale),
	)
	return out, nil
}

// record counts the outcome of one run, once
func (p *Pipeline) record(ctx context.Context, out *Output, err error) {
	if err != nil {
		RecordFailure(StageOf(err))
		return
	}
	RecordSuccess(out.Stats)
	if p.rows != nil {
		p.rows.Add(ctx, int64(out.Stats.RowsProcessed))
	}
}

func (p *Pipeline) run(ctx context.Context, in Input, opts Options) (*Output, error) {
	var calc *pricing.Calculator
	err := p.stage(ctx, StageConfigure, func(context.Context) error {
		discounts := opts.Discounts
		if discounts == nil {
			discounts = types.DefaultDiscountSettings()
		}
		var err error
		calc, err = pricing.NewCalculator(pricing.DefaultMarkers(), discounts, opts.RecalculateExisting)
		return err
	})
	if err != nil {
		return nil, err
	}

	prep, err := p.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(prep.rows) == 0 {
		return nil, types.NewStageError(StageClean, fmt.Errorf("%w: nothing left below header row %d",
			types.ErrEmptyInput, prep.location.HeaderRow+1))
	}

	cm := prep.location.Columns
	var rows []types.Row
	var stats types.ProcessingStats
	err = p.stage(ctx, StageTransform, func(context.Context) error {
		rows, stats = pricing.Transform(prep.rows, cm, p.normalizer, calc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug().
		Int("rows", stats.RowsProcessed).
		Int("sale", stats.RowsWithSale).
		Msg("Transformed rows")

	out := &Output{
		Stats:    stats,
		Location: prep.location,
		Cleaning: prep.cleaning,
	}
	err = p.stage(ctx, StageExport, func(context.Context) error {
		ex := exporter.New(p.cfg.Layout, p.cleaner.Patterns())
		ex.Now = p.Now

		var buf bytes.Buffer
		if _, err := ex.WriteTo(&buf, rows, cm); err != nil {
			return err
		}
		name, err := cuid2.NewOutputName(p.cfg.OutputPrefix, "xlsx", cuid2.OutputNameOptions{Now: p.Now})
		if err != nil {
			return fmt.Errorf("failed to generate output name: %w", err)
		}
		out.Name = name
		out.Content = buf.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("file", in.Filename).
		Str("output", out.Name).
		Int("rows", stats.RowsProcessed).
		Int("sale", stats.RowsWithSale).
		Int("bytes", len(out.Content)).
		Msg("Price list standardized")

	return out, nil
}

// prepare runs load, locate and clean
func (p *Pipeline) prepare(ctx context.Context, in Input) (*prepared, error) {
	prep := &prepared{}

	err := p.stage(ctx, StageLoad, func(context.Context) error {
		sheet, err := p.load(in)
		prep.sheet = sheet
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug().
		Str("sheet", prep.sheet.Name).
		Int("rows", len(prep.sheet.Rows)).
		Int("merged", len(prep.sheet.Merges)).
		Msg("Loaded sheet")

	err = p.stage(ctx, StageLocate, func(context.Context) error {
		loc, err := p.locator.Locate(prep.sheet.Rows)
		prep.location = loc
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug().
		Int("headerRow", prep.location.HeaderRow+1).
		Int("columns", prep.location.Columns.Len()).
		Msg("Located header")

	err = p.stage(ctx, StageClean, func(context.Context) error {
		prep.rows, prep.cleaning = p.cleaner.Clean(prep.sheet.Rows[prep.location.HeaderRow+1:])
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug().
		Int("dataRows", len(prep.rows)).
		Msg("Cleaned rows")

	return prep, nil
}

func (p *Pipeline) load(in Input) (*types.Sheet, error) {
	fileType, err := types.DetectFileType(in.Filename)
	if err != nil {
		return nil, err
	}

	switch fileType {
	case types.FileTypeCSV:
		return csv.NewLoader(p.cfg.CSV).Load(in.Content, in.Filename)
	default:
		opts := xlsx.DefaultOptions()
		opts.Sheet = p.cfg.Sheet
		return xlsx.NewLoader(opts).Load(in.Content, in.Filename)
	}
}

// stage runs fn inside a span, times it and wraps its error with the stage name.
// A cancelled context stops the pipeline before the stage starts.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return types.NewStageError(name, err)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	RecordStage(name, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return types.NewStageError(name, err)
	}
	return nil
}

// Process runs the pipeline, stores the output and reports the outcome.
// The returned Result is always filled in; err carries the cause of a failure.
func (p *Pipeline) Process(ctx context.Context, in Input, opts Options) (types.Result, error) {
	out, err := p.execute(ctx, in, opts)
	if err == nil {
		err = p.save(ctx, in, out)
	}
	p.record(ctx, out, err)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("file", in.Filename).
			Str("stage", StageOf(err)).
			Msg("Price list processing failed")
		return types.Result{
			Success: false,
			Message: FailureMessage(err),
			Stats:   types.NewProcessingStats(),
		}, err
	}

	return types.Result{
		Success:    true,
		Message:    SuccessMessage(out.Stats),
		OutputName: out.Name,
		Stats:      out.Stats,
	}, nil
}

func (p *Pipeline) save(ctx context.Context, in Input, out *Output) error {
	return p.stage(ctx, StageStore, func(ctx context.Context) error {
		if p.store == nil {
			return errors.New("no storage configured")
		}
		meta := &storage.Metadata{
			ContentType:  storage.ContentTypeXLSX,
			OriginalName: in.Filename,
			CreatedAt:    p.Now(),
			Custom: map[string]string{
				"rowsProcessed": strconv.Itoa(out.Stats.RowsProcessed),
				"rowsWithSale":  strconv.Itoa(out.Stats.RowsWithSale),
			},
		}
		if err := p.store.Put(ctx, storage.BuildOutputKey(out.Name), out.Content, meta); err != nil {
			return fmt.Errorf("failed to store %s: %w", out.Name, err)
		}
		return nil
	})
}

// Inspect loads, locates and cleans a document and reports what was found
func (p *Pipeline) Inspect(ctx context.Context, in Input) (*Inspection, error) {
	prep, err := p.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	header := prep.sheet.Rows[prep.location.HeaderRow]
	names := make([]string, len(header.Cells))
	for i, c := range header.Cells {
		names[i] = c.String()
	}

	return &Inspection{
		Sheet:     prep.sheet.Name,
		TotalRows: len(prep.sheet.Rows),
		HeaderRow: prep.location.HeaderRow + 1,
		Header:    names,
		Columns:   prep.location.Columns,
		Cleaning:  prep.cleaning,
		DataRows:  len(prep.rows),
	}, nil
}

// SuccessMessage renders the processed and sale counts for the caller
func SuccessMessage(stats types.ProcessingStats) string {
	return fmt.Sprintf("Processed %d rows, %d on sale", stats.RowsProcessed, stats.RowsWithSale)
}

// FailureMessage renders a readable reason for a failed run
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrFormat):
		return "Unreadable file: " + err.Error()
	case errors.Is(err, types.ErrSheetNotFound):
		return "Sheet not found: " + err.Error()
	case errors.Is(err, types.ErrStructure):
		return "Price list structure not recognized: " + err.Error()
	case errors.Is(err, types.ErrEmptyInput):
		return "No product rows found: " + err.Error()
	case errors.Is(err, types.ErrInvalidSettings):
		return "Invalid discount settings: " + err.Error()
	case errors.Is(err, types.ErrExport):
		return "Export failed: " + err.Error()
	default:
		return "Processing failed: " + err.Error()
	}
}

// StageOf returns the stage a pipeline error came from, or "unknown"
func StageOf(err error) string {
	var stageErr *types.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return "unknown"
}

// IsClientError reports errors caused by the input or the settings rather than the service
func IsClientError(err error) bool {
	return errors.Is(err, types.ErrFormat) ||
		errors.Is(err, types.ErrSheetNotFound) ||
		errors.Is(err, types.ErrStructure) ||
		errors.Is(err, types.ErrEmptyInput) ||
		errors.Is(err, types.ErrInvalidSettings)
}

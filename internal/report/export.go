package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agrodash/internal/client"
	"github.com/wolfeidau/agrodash/internal/services"
	"github.com/wolfeidau/agrodash/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultPageSize is used when ExportYields is given a non-positive page size.
const DefaultPageSize = 100

// ErrNoData is returned when an export matched no records.
var ErrNoData = errors.New("no data to export")

// PageFetcher returns one page of yields. YieldService.Filter satisfies it.
type PageFetcher func(ctx context.Context, page, size int, filter services.YieldFilter) (client.Page[services.Yield], error)

// Header is the CSV header row, one column per yield field.
var Header = []string{
	"_id",
	"crop",
	"crop_year",
	"season",
	"state",
	"area",
	"production",
	"annual_rainfall",
	"fertilizer",
	"pesticide",
	"yield",
}

// ExportYields fetches every page matching filter in order and writes them
// as CSV to w. It returns the number of rows written.
func ExportYields(ctx context.Context, fetch PageFetcher, filter services.YieldFilter, pageSize int, w io.Writer) (int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	start := time.Now()
	cw := csv.NewWriter(w)
	rows := 0

	for page, totalPages := 1, 1; page <= totalPages; page++ {
		result, err := fetch(ctx, page, pageSize, filter)
		if err != nil {
			return rows, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		totalPages = result.TotalPages

		if rows == 0 && len(result.Items) > 0 {
			if err := cw.Write(Header); err != nil {
				return rows, fmt.Errorf("failed to write header: %w", err)
			}
		}

		for _, y := range result.Items {
			if err := cw.Write(Record(y)); err != nil {
				return rows, fmt.Errorf("failed to write row: %w", err)
			}
			rows++
		}

		log.Debug().Int("page", page).Int("totalPages", totalPages).Int("rows", rows).Msg("export page fetched")
	}

	if rows == 0 {
		return 0, ErrNoData
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush csv: %w", err)
	}

	m := telemetry.GetMetrics()
	m.ExportedRowsTotal.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("format", "csv")))
	m.ExportDuration.Record(ctx, float64(time.Since(start).Milliseconds()))

	log.Info().Int("rows", rows).Dur("duration", time.Since(start)).Msg("yields exported")

	return rows, nil
}

// Record renders y in Header order.
func Record(y services.Yield) []string {
	return []string{
		y.ID,
		y.Crop,
		strconv.Itoa(y.CropYear),
		y.Season,
		y.State,
		formatFloat(y.Area),
		formatFloat(y.Production),
		formatFloat(y.AnnualRainfall),
		formatFloat(y.Fertilizer),
		formatFloat(y.Pesticide),
		formatFloat(y.Yield),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewCompressedWriter wraps w with a zstd encoder. Close flushes the encoder
// but does not close w.
func NewCompressedWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	return enc, nil
}

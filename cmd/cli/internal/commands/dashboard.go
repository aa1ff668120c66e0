package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfeidau/agrodash/internal/report"
	"github.com/wolfeidau/agrodash/internal/services"
)

// DashboardCmd reads the aggregated dashboard data.
type DashboardCmd struct {
	Data    DashboardDataCmd    `cmd:"" help:"Show production totals for a filter"`
	Filters DashboardFiltersCmd `cmd:"" help:"Show the available filter values"`
}

type DashboardDataCmd struct {
	FilterFlags `embed:""`
	File        string `help:"YAML or JSON file with the filter" type:"existingfile" short:"f"`
	Decimals    int    `help:"Decimal places in totals" default:"1"`
}

func (d *DashboardDataCmd) Run(ctx context.Context, globals *Globals) error {
	filter := d.Filter()
	if d.File != "" {
		if err := loadFile(d.File, &filter); err != nil {
			return err
		}
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	data, err := services.NewDashboardService(e.client).YieldData(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(data)
	}

	out := globals.out()
	fmt.Fprintf(out, "Records:           %d\n", data.Calculations.ItemCount)
	fmt.Fprintf(out, "Total production:  %s\n", report.FormatBR(data.Calculations.TotalProduction, d.Decimals))

	totals := data.SeasonTotals
	if len(totals.Years) > 0 {
		fmt.Fprintln(out)
		w := globals.table()
		fmt.Fprintln(w, "YEAR\tTOTAL\tTREND")

		trend, trendErr := report.YearTrend(totals.Years, totals.Total)
		for i, year := range totals.Years {
			total := "-"
			if i < len(totals.Total) {
				total = report.FormatCompact(totals.Total[i], d.Decimals)
			}
			fitted := "-"
			if trendErr == nil {
				fitted = report.FormatCompact(trend.At(float64(year)), d.Decimals)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", year, total, fitted)
		}
		w.Flush()

		if trendErr == nil {
			fmt.Fprintf(out, "Trend: %s per year\n", report.FormatBR(trend.Slope, d.Decimals))
		}
	}

	if len(data.StatesTotals) > 0 {
		fmt.Fprintln(out)
		w := globals.table()
		fmt.Fprintln(w, "STATE\tPRODUCTION")
		for _, s := range data.StatesTotals {
			fmt.Fprintf(w, "%s\t%s\n", s.State, report.FormatCompact(s.TotalProduction, d.Decimals))
		}
		w.Flush()
	}

	return nil
}

type DashboardFiltersCmd struct{}

func (d *DashboardFiltersCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	filters, err := services.NewDashboardService(e.client).Filters(ctx)
	if err != nil {
		return fmt.Errorf("failed to load filters: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(filters)
	}

	years := make([]string, len(filters.CropYears))
	for i, y := range filters.CropYears {
		years[i] = y.String()
	}

	out := globals.out()
	fmt.Fprintf(out, "Crop years:  %s\n", strings.Join(years, ", "))
	fmt.Fprintf(out, "Seasons:     %s\n", strings.Join(filters.Seasons, ", "))
	fmt.Fprintf(out, "States:      %s\n", strings.Join(filters.States, ", "))
	fmt.Fprintf(out, "Crops:       %s\n", strings.Join(filters.Crops, ", "))

	return nil
}

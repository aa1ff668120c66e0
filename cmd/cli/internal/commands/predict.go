package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/agrodash/internal/report"
	"github.com/wolfeidau/agrodash/internal/services"
)

// PredictCmd calls the yield prediction model.
type PredictCmd struct {
	Custom PredictCustomCmd `cmd:"" help:"Predict production for a custom scenario"`
}

type PredictCustomCmd struct {
	State          string  `help:"State"`
	Crop           string  `help:"Crop"`
	Season         string  `help:"Season"`
	Area           float64 `help:"Cultivated area, 0 lets the model decide"`
	Fertilizer     float64 `help:"Fertilizer used, 0 lets the model decide"`
	Pesticide      float64 `help:"Pesticide used, 0 lets the model decide"`
	AnnualRainfall float64 `name:"rainfall" help:"Annual rainfall, 0 lets the model decide"`
	Year           int     `help:"Year to predict, 0 lets the model decide"`
	File           string  `help:"YAML or JSON file with the scenario" type:"existingfile" short:"f"`
}

// Request builds the scenario from flags, overlaid by the file when given.
func (p *PredictCustomCmd) Request() (services.CustomPredictionRequest, error) {
	req := services.CustomPredictionRequest{
		State:          p.State,
		Crop:           p.Crop,
		Season:         p.Season,
		Area:           nonZero(p.Area),
		Fertilizer:     nonZero(p.Fertilizer),
		Pesticide:      nonZero(p.Pesticide),
		AnnualRainfall: nonZero(p.AnnualRainfall),
		Year:           nonZero(p.Year),
	}

	if p.File != "" {
		if err := loadFile(p.File, &req); err != nil {
			return req, err
		}
	}

	return req, nil
}

func (p *PredictCustomCmd) Run(ctx context.Context, globals *Globals) error {
	req, err := p.Request()
	if err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	rows, err := services.NewPredictionService(e.client).Custom(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to predict: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(globals.out(), "No predictions returned.")
		return nil
	}

	w := globals.table()
	fmt.Fprintln(w, "STATE\tCROP\tSEASON\tYEAR\tAREA\tRAINFALL\tFERTILIZER\tPESTICIDE\tPRODUCTION")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.State, r.Crop, r.Season, r.Year,
			report.FormatBR(r.Area, 2),
			report.FormatBR(r.AnnualRainfall, 2),
			report.FormatBR(r.PredictedFertilizer, 2),
			report.FormatBR(r.PredictedPesticide, 2),
			report.FormatBR(r.PredictedProduction, 2))
	}
	w.Flush()
	return nil
}

func nonZero[T int | float64](v T) *T {
	if v == 0 {
		return nil
	}
	return &v
}

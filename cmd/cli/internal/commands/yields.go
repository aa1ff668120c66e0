package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agrodash/internal/report"
	"github.com/wolfeidau/agrodash/internal/services"
)

// YieldsCmd reads and edits crop yield records.
type YieldsCmd struct {
	Filter YieldsFilterCmd `cmd:"" help:"Page through yields matching a filter"`
	List   YieldsListCmd   `cmd:"" help:"List every yield"`
	Create YieldsCreateCmd `cmd:"" help:"Create a yield record"`
	Update YieldsUpdateCmd `cmd:"" help:"Update a yield record"`
	Export YieldsExportCmd `cmd:"" help:"Export every yield matching a filter to CSV"`
}

type YieldsFilterCmd struct {
	FilterFlags `embed:""`
	File        string `help:"YAML or JSON file with the filter" type:"existingfile" short:"f"`
	Page        int    `help:"Page number" default:"1"`
	Size        int    `help:"Records per page" default:"20"`
}

func (y *YieldsFilterCmd) Run(ctx context.Context, globals *Globals) error {
	filter := y.Filter()
	if y.File != "" {
		if err := loadFile(y.File, &filter); err != nil {
			return err
		}
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	page, err := services.NewYieldService(e.client).Filter(ctx, y.Page, y.Size, filter)
	if err != nil {
		return fmt.Errorf("failed to filter yields: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(page)
	}

	fmt.Fprintf(globals.out(), "Yields (page %d/%d, %d total):\n", y.Page, page.TotalPages, page.TotalItems)
	printYields(globals, page.Items)
	return nil
}

type YieldsListCmd struct{}

func (y *YieldsListCmd) Run(ctx context.Context, globals *Globals) error {
	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	yields, err := services.NewYieldService(e.client).List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list yields: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(yields)
	}

	printYields(globals, yields)
	return nil
}

type YieldsCreateCmd struct {
	File string `help:"YAML or JSON file with the yield record" type:"existingfile" short:"f" required:""`
}

func (y *YieldsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.Yield
	if err := loadFile(y.File, &req); err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	created, err := services.NewYieldService(e.client).Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create yield: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(created)
	}

	fmt.Fprintf(globals.out(), "Yield %s created.\n", created.ID)
	return nil
}

type YieldsUpdateCmd struct {
	ID   string `arg:"" help:"Yield ID"`
	File string `help:"YAML or JSON file with the fields to change" type:"existingfile" short:"f" required:""`
}

func (y *YieldsUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	var req services.YieldUpdate
	if err := loadFile(y.File, &req); err != nil {
		return err
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	updated, err := services.NewYieldService(e.client).Update(ctx, y.ID, req)
	if err != nil {
		return fmt.Errorf("failed to update yield: %w", err)
	}

	if globals.jsonOutput() {
		return globals.printJSON(updated)
	}

	fmt.Fprintf(globals.out(), "Yield %s updated.\n", y.ID)
	return nil
}

type YieldsExportCmd struct {
	FilterFlags `embed:""`
	File        string `help:"YAML or JSON file with the filter" type:"existingfile" short:"f"`
	Dest        string `help:"Destination file, stdout when empty" short:"d" type:"path"`
	PageSize    int    `help:"Records fetched per request" default:"100"`
	Compress    bool   `help:"Compress the CSV with zstd"`
}

func (y *YieldsExportCmd) Run(ctx context.Context, globals *Globals) error {
	filter := y.Filter()
	if y.File != "" {
		if err := loadFile(y.File, &filter); err != nil {
			return err
		}
	}

	if filter.IsEmpty() {
		log.Info().Msg("no filter given, exporting every yield")
	}

	e, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if y.Dest == "" {
		_, err := y.export(ctx, e, filter, globals.out())
		return err
	}

	// written beside the destination and renamed once complete
	tmp, err := os.CreateTemp(filepath.Dir(y.Dest), "."+filepath.Base(y.Dest)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", y.Dest, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	rows, err := y.export(ctx, e, filter, tmp)
	if err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", y.Dest, err)
	}

	if err := os.Rename(tmp.Name(), y.Dest); err != nil {
		return fmt.Errorf("failed to write %s: %w", y.Dest, err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d yields to %s.\n", rows, y.Dest)
	return nil
}

// export streams the CSV to dst, compressed when requested.
func (y *YieldsExportCmd) export(ctx context.Context, e *env, filter services.YieldFilter, dst io.Writer) (int, error) {
	var zw io.WriteCloser
	if y.Compress {
		var err error
		zw, err = report.NewCompressedWriter(dst)
		if err != nil {
			return 0, err
		}
		defer func() {
			if zw != nil {
				_ = zw.Close()
			}
		}()
		dst = zw
	}

	rows, err := report.ExportYields(ctx, services.NewYieldService(e.client).Filter, filter, y.PageSize, dst)
	if err != nil {
		return rows, fmt.Errorf("failed to export yields: %w", err)
	}

	if zw != nil {
		err := zw.Close()
		zw = nil
		if err != nil {
			return rows, fmt.Errorf("failed to finish compression: %w", err)
		}
	}

	return rows, nil
}

func printYields(globals *Globals, yields []services.Yield) {
	if len(yields) == 0 {
		fmt.Fprintln(globals.out(), "No yields found.")
		return
	}

	w := globals.table()
	fmt.Fprintln(w, "ID\tCROP\tYEAR\tSEASON\tSTATE\tAREA\tPRODUCTION\tYIELD")
	for _, y := range yields {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			y.ID, y.Crop, y.CropYear, y.Season, y.State,
			report.FormatBR(y.Area, 2), report.FormatBR(y.Production, 2), report.FormatBR(y.Yield, 2))
	}
	w.Flush()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agrodash/cmd/cli/internal/commands"
	"github.com/wolfeidau/agrodash/internal/logger"
	"github.com/wolfeidau/agrodash/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Login     commands.LoginCmd     `cmd:"" help:"Log in and store the session"`
		Logout    commands.LogoutCmd    `cmd:"" help:"Log out and remove the session"`
		Status    commands.StatusCmd    `cmd:"" help:"Show the session status"`
		Users     commands.UsersCmd     `cmd:"" help:"Manage users"`
		Yields    commands.YieldsCmd    `cmd:"" help:"Manage crop yields"`
		Dashboard commands.DashboardCmd `cmd:"" help:"Show dashboard data"`
		Terms     commands.TermsCmd     `cmd:"" help:"Manage terms of service"`
		Predict   commands.PredictCmd   `cmd:"" help:"Predict crop production"`

		Portability commands.PortabilityCmd `cmd:"" help:"Run the external client data portability flow"`

		Connection commands.ConnectionFlags `embed:""`

		Output  string `help:"Output format (table, json)" enum:"table,json" default:"table" env:"AGRODASH_OUTPUT"`
		Debug   bool   `help:"Enable debug mode." env:"AGRODASH_DEBUG"`
		Tracing bool   `help:"Export traces and metrics over OTLP." env:"AGRODASH_TRACING"`
		Version kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("agrodash"),
		kong.Description("Command line client for the crop yield dashboard APIs."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := run(ctx, cmd)
	cmd.FatalIfErrorf(commands.WithLoginHint(err))
}

func run(ctx context.Context, cmd *kong.Context) error {
	if cli.Tracing {
		shutdown, err := telemetry.InitTelemetry(ctx, "agrodash-cli", version)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("failed to flush telemetry")
			}
		}()
	}

	return cmd.Run(&commands.Globals{
		Debug:      cli.Debug,
		Tracing:    cli.Tracing,
		Version:    version,
		Output:     cli.Output,
		Connection: cli.Connection,
	})
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/xythum/darkpool-relayer/pkg/config"
	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/relayer"
)

var (
	optionEnvFile = &cli.StringFlag{
		Name:    "env-file",
		Usage:   "path to the .env file loaded before reading the environment",
		Value:   ".env",
		EnvVars: []string{"RELAYER_ENV_FILE"},
	}
	optionConfig = &cli.StringFlag{
		Name:    "config",
		Usage:   "optional YAML file overriding environment settings",
		EnvVars: []string{"RELAYER_CONFIG"},
	}
)

func main() {
	app := &cli.App{
		Name:  "darkpool-relayer",
		Usage: "Relays swaps between the AVAX lock contract and an Algorand ASA",
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start the relayer",
				Flags: []cli.Flag{
					optionEnvFile,
					optionConfig,
				},
				Action: start,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "exited with error: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(c *cli.Context, cfg *config.Config) {
	title := color.New(color.FgHiMagenta, color.Bold)
	if !cfg.LoggerConfig.Coloring {
		title.DisableColor()
	}
	_, _ = title.Fprintln(c.App.Writer, "XYTHUM DARKPOOL RELAYER")
	fmt.Fprintf(c.App.Writer, "network:        %s\n", cfg.Network)
	fmt.Fprintf(c.App.Writer, "lock contract:  %s\n", cfg.EVM.LockAddress.Hex())
	fmt.Fprintf(c.App.Writer, "token:          %s (%d decimals delta)\n", cfg.EVM.TokenAddress.Hex(), cfg.TokenDecimals)
	fmt.Fprintf(c.App.Writer, "ASA id:         %d\n", cfg.Algorand.AssetID)
	fmt.Fprintf(c.App.Writer, "algod:          %s\n", cfg.Algorand.Server)
	fmt.Fprintf(c.App.Writer, "poll interval:  %s\n", cfg.PollInterval)
	fmt.Fprintf(c.App.Writer, "http / ws port: %s / %s\n", cfg.HTTPPort, cfg.WSPort)
}

func start(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String(optionEnvFile.Name), c.String(optionConfig.Name))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.LoggerConfig.Format, cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)
	printBanner(c, cfg)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := relayer.NewService(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create relayer service: %w", err)
	}

	runErr := service.Start(ctx)
	if runErr == nil {
		log.Notice("Received termination signal, shutting down gracefully...")
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		service.Close()
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		log.Error("Failed to close relayer in time")
	}

	return runErr
}

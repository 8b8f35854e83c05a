package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sawpanic/equityrecon/internal/config"
	"github.com/sawpanic/equityrecon/internal/httpapi"
)

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:   "equityrecon",
		Short: "Multi-source financial metrics reconciliation engine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults apply when empty)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(reconcileCmd(ctx, &configPath))
	root.AddCommand(serveCmd(ctx, &configPath))
	root.AddCommand(providersCmd(&configPath))
	return root.ExecuteContext(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("EQUITYRECON_CONFIG"); env != "" {
			path = env
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func reconcileCmd(ctx context.Context, configPath *string) *cobra.Command {
	var detailed bool
	cmd := &cobra.Command{
		Use:   "reconcile <ticker>",
		Short: "Reconcile one ticker and print the merged profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			app, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			res := app.Engine.ReconcileDetailed(ctx, args[0])
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if detailed {
				return enc.Encode(res)
			}
			return enc.Encode(res.Profile)
		},
	}
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include the validation report")
	return cmd
}

func serveCmd(ctx context.Context, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve reconciliation over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			app, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			srv := httpapi.NewServer(cfg.HTTP, app.Engine, app.Prometheus)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Stop(shutdownCtx)
			}
		},
	}
}

func providersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered adapters and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			app, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, p := range app.Registry.All() {
				status := "unavailable"
				if p.IsAvailable() {
					status = "available"
				}
				fmt.Printf("%-12s %s\n", p.Name(), status)
			}
			return nil
		},
	}
}

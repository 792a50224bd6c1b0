// Command edgescriptd runs the edgescript triple-store scripting engine:
// either as an HTTP server (serve) or as an interactive script-tree REPL
// against a local store (repl).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/orneryd/edgescript/pkg/config"
	"github.com/orneryd/edgescript/pkg/server"
	"github.com/orneryd/edgescript/pkg/storage"
)

var version = "0.1.0"

func main() {
	// A local .env, if present, seeds process environment variables before
	// config.LoadFromEnv reads them; a missing file is not an error.
	_ = godotenv.Load(".env")

	rootCmd := &cobra.Command{
		Use:   "edgescriptd",
		Short: "edgescript - a triple-store scripting engine",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("edgescriptd v%s\n", version)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the edgescript HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("dsn", "", "override store DSN (default from EDGESCRIPT_STORE_DSN)")
	serveCmd.Flags().Int("port", 0, "override listen port (default from EDGESCRIPT_PORT)")
	serveCmd.Flags().String("config", "", "path to a YAML config file overlaying environment settings")
	rootCmd.AddCommand(serveCmd)

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactively post script trees against a local store",
		RunE:  runREPL,
	}
	replCmd.Flags().String("dsn", "edgescript.db", "store DSN")
	rootCmd.AddCommand(replCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.LoadFromEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := cfg.MergeYAMLFile(path); err != nil {
			return nil, err
		}
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open store %s: %w", cfg.Store.DSN, err)
	}
	defer store.Close()

	srv, err := server.New(cfg, store)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Printf("edgescript listening on %s\n", srv.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

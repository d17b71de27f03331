package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/beauquote/internal/cipher"
	"github.com/robalobadob/beauquote/internal/config"
	"github.com/robalobadob/beauquote/internal/httpserver"
	"github.com/robalobadob/beauquote/internal/journal"
	"github.com/robalobadob/beauquote/internal/quotes"
	"github.com/robalobadob/beauquote/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "beauquote",
		Short:         "Quote cipher puzzle server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), quoteCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func quoteCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch one enciphered quote and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.SetupLogging()
			src, closeFn, err := buildSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			return printQuote(cmd.OutOrStdout(), src.Fetch(cmd.Context()), reveal)
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "also print the deciphered text")
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return err
	}
	cfg.SetupLogging()

	src, closeFn, err := buildSource(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("build quote source")
		return err
	}
	defer closeFn()

	jr, err := journal.Open(cfg.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("open journal")
		return err
	}
	defer jr.Close()

	srv := httpserver.New(store.NewMemoryStore(), src, jr, httpserver.Options{
		ClientOrigin: cfg.ClientOrigin,
		Production:   cfg.Production(),
	})
	log.Info().Str("port", cfg.Port).Bool("insecureRetry", cfg.InsecureRetry()).Msg("starting beauquote")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	return nil
}

// buildSource wires provider, fallback pool and recent history from cfg.
// The returned func releases the history backend.
func buildSource(ctx context.Context, cfg config.Config) (*quotes.Source, func(), error) {
	pool, err := quotes.LoadPool(cfg.FallbackFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load fallback pool: %w", err)
	}

	var (
		history quotes.History = quotes.NewMemoryHistory(cfg.RecentLimit)
		closeFn                = func() {}
	)
	if cfg.RedisURL != "" {
		rh, err := quotes.NewRedisHistoryFromURL(ctx, cfg.RedisURL, cfg.RecentLimit)
		if err != nil {
			return nil, nil, err
		}
		history = rh
		closeFn = func() { _ = rh.Close() }
		log.Info().Msg("recent quote history shared via redis")
	}

	provider := quotes.NewProvider(cfg.UpstreamURL, cfg.UpstreamTags, cfg.HTTPTimeout)
	src := quotes.NewSource(provider, pool, history, quotes.Options{
		MaxAttempts:        cfg.MaxAttempts,
		AllowInsecureRetry: cfg.InsecureRetry(),
	})
	return src, closeFn, nil
}

func printQuote(w io.Writer, res quotes.Result, reveal bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if reveal {
		_, err := fmt.Fprintf(w, "%s\n  — %s\n", cipher.Encode(res.Encrypted, res.Key.Inverse()), res.Author)
		return err
	}
	return nil
}

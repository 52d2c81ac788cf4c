// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// fakebackend serves canned answers on the standards Q&A API so the client
// can be run without the real service:
//
//	go run ./cmd/fakebackend --port 8001
//	STDQA_BACKEND_HOST=127.0.0.1 stdqa
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/stdqa/internal/fakeserver"
	"github.com/jeranaias/stdqa/internal/logging"
)

func main() {
	var (
		host      string
		port      int
		documents int
		delay     time.Duration
		failEvery int
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:          "fakebackend",
		Short:        "Serve canned answers on /health and /ask",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, logging.ParseLevel(logLevel))
			s := fakeserver.New(fakeserver.Options{
				Documents: documents,
				Delay:     delay,
				FailEvery: failEvery,
				Logger:    log,
			})
			return serve(cmd.Context(), net.JoinHostPort(host, strconv.Itoa(port)), s.Router(), log)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&host, "host", "127.0.0.1", "address to listen on")
	flags.IntVar(&port, "port", 8001, "port to listen on")
	flags.IntVar(&documents, "documents", fakeserver.DefaultDocuments, "document count reported by /health")
	flags.DurationVar(&delay, "delay", 300*time.Millisecond, "latency added to every /ask")
	flags.IntVar(&failEvery, "fail-every", 0, "return 500 on every Nth /ask (0 never fails)")
	flags.StringVar(&logLevel, "log-level", "info", "log level")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("fake backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/patchbay/internal/adapters/http"
	"github.com/aretw0/patchbay/pkg/adapters/headless"
	"github.com/aretw0/patchbay/pkg/adapters/speaker"
	"github.com/aretw0/patchbay/pkg/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the patch inspection HTTP server",
	Long:  `Runs the demo patch and exposes a JSON API over HTTP: module and connection introspection, the Mermaid graph, a reconcile trigger and Prometheus metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)
		port, _ := cmd.Flags().GetString("port")
		noDevice, _ := cmd.Flags().GetBool("headless")

		var eng engine.AudioEngine
		if noDevice {
			eng = headless.New(2)
		} else {
			eng = speaker.New()
		}

		patch, err := buildDemoPatch(eng, logger)
		if err != nil {
			fmt.Printf("Error building demo patch: %v\n", err)
			os.Exit(1)
		}
		defer patch.Close()

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: httpAdapter.NewHandler(patch, logger),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Patchbay server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Patchbay server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("headless", false, "Run without a sound device")
}

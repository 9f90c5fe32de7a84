// Package serve implements the serve command
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nossas-despesas/expense-import/cmd/root"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/web"

	"github.com/spf13/cobra"
)

// ShutdownTimeout bounds the graceful shutdown after a signal.
const ShutdownTimeout = 10 * time.Second

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the statement upload endpoint",
	Long: `Start the HTTP server that accepts statement uploads on
POST /api/expenses/import and answers with the extracted drafts.`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
}

func serveFunc(cmd *cobra.Command, _ []string) error {
	c := root.GetContainer()
	cfg := c.GetConfig()
	listen := addr
	if listen == "" {
		listen = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(c.GetService(), cfg.MaxUploadBytes(), root.GetLogger())
	return Run(ctx, server, listen, root.GetLogger())
}

// Run serves until ctx is done, then shuts the server down gracefully.
func Run(ctx context.Context, server *web.Server, addr string, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

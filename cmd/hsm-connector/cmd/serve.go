package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hsmgo/yubihsm-go/connector"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Relay a locally attached YubiHSM2 over HTTP",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		usbTransport, err := connector.OpenUSB()
		if err != nil {
			return &deviceAbsentError{cause: err}
		}
		defer usbTransport.Close()

		return serve(cfg, usbTransport)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg config, transport connector.Transport) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/connector/api", apiHandler(transport))
	mux.HandleFunc("/connector/status", statusHandler)

	addr := fmt.Sprintf("%s:%d", cfg.addr, cfg.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		slog.Info("hsm-connector: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("hsm-connector: forced shutdown", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("hsm-connector: listening", "addr", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// apiHandler relays one frame at a time over the USB transport, matching
// the one-request-one-response shape a SecureChannel expects.
func apiHandler(transport connector.Transport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := transport.Send(body); err != nil {
			slog.Warn("hsm-connector: USB send failed", "error", err)
			http.Error(w, "transport error", http.StatusBadGateway)
			return
		}

		resp, err := transport.Recv()
		if err != nil {
			slog.Warn("hsm-connector: USB recv failed", "error", err)
			http.Error(w, "transport error", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(resp)
	}
}

func statusHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "status=OK\nserial=0\nversion=0.0.0\npid=%d\naddress=\nport=\n", os.Getpid())
}

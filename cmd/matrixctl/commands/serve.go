package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/internal/display"
	"github.com/coreman2200/matrixctl/internal/play"
	"github.com/coreman2200/matrixctl/internal/store"
	"github.com/coreman2200/matrixctl/internal/ws"
)

var serveAddr string

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the websocket preview server",
	Long: `Starts an HTTP server that streams played frames to websocket
clients on /ws and accepts playback control messages on /control.`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var sched *play.Scheduler
	hub := ws.NewHub(ws.Control{
		Play: func(name string) error {
			n := store.CleanName(name)
			if !strings.HasSuffix(n, ".json") {
				n += ".json"
			}
			pl, err := store.Load(filepath.Join(cfg.PatternsDir, n))
			if err != nil {
				return err
			}
			frames, err := pl.ToAnimation()
			if err != nil {
				return err
			}
			return sched.Start(frames)
		},
		Stop:          func() { sched.Stop() },
		SetFrameDelay: func(ms int) { sched.SetDelay(time.Duration(ms) * time.Millisecond) },
	}, log.With().Str("component", "ws").Logger())

	sched = play.New(
		display.Tee{hub, display.NewHeadless(log.With().Str("component", "display").Logger())},
		frameDelay(cfg),
		log.With().Str("component", "play").Logger(),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleFrames)
	mux.HandleFunc("/control", hub.HandleControl)
	mux.HandleFunc("/health", hub.HandleHealth)

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("preview server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	sched.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

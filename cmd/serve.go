package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/barface/internal/config"
	"github.com/kozaktomas/barface/internal/constants"
	"github.com/kozaktomas/barface/internal/generator"
	"github.com/kozaktomas/barface/internal/pipeline"
	"github.com/kozaktomas/barface/internal/speech"
	"github.com/kozaktomas/barface/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Barface web server.
The server recognizes guests posted to /image and answers with a spoken
order suggestion, synthesizes arbitrary text on /polly and streams the
background music on /.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 3000, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to (overrides WEB_HOST)")
}

// applyServeFlags lets explicitly set flags win over the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = mustGetString(cmd, "host")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log := loadConfig()
	applyServeFlags(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	synth, err := speech.NewSynthesizer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	log.WithField("synthesizer", synth.Name()).Info("speech synthesis ready")
	checkSpeechFormat(cfg, log)

	orchestrator := pipeline.New(
		b.recognizer,
		b.profiles,
		synth,
		generator.New(nil),
		pipeline.Options{CollectionID: cfg.Collection.ID, Speech: cfg.Speech},
		log,
	)

	server := web.NewServer(cfg, web.Deps{
		Pipeline: orchestrator,
		Speech:   synth,
		Faces:    b.faces,
		Profiles: b.profiles,
	}, log)

	ln, err := net.Listen("tcp", server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.Addr(), err)
	}

	// Created once the port is bound. A failure leaves the server running.
	if err := ensureCollection(ctx, b.recognizer, cfg.Collection.ID, log); err != nil {
		log.WithError(err).Error("failed to create collection")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutting down")
		saveHNSWIndex(log)

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("error during shutdown")
		}
	}()

	log.Infof("barface listening on http://%s", ln.Addr())

	if err := server.Serve(ln); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

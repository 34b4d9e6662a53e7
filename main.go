// Command boardsmith validates and generates game boards.
//
// It supports these commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" – checks board files and exits non-zero when one is not playable
//  4. "generate" – prints or writes a random playable board
//  5. "watch" – follows session edits over the WebSocket feed
//
// Flags control host/port, config directory, logging, and optional ngrok
// tunneling for easy external access during development. Every flag can also
// be set from the environment or a .env file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/boardsmith/game/config"
	"github.com/wricardo/boardsmith/game/service"
	"github.com/wricardo/boardsmith/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Boardsmith"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// app carries what the commands share once flags are parsed
type app struct {
	stdout io.Writer
	log    *logrus.Logger
}

func newApp(stdout io.Writer) *cli.Command {
	a := &app{stdout: stdout, log: logrus.New()}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   "configs",
			Usage:   "directory containing board presets",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "log level (debug, info, warn, error)",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "log format (text, json)",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "shorthand for --log-level debug",
			Sources: cli.EnvVars("DEBUG"),
		},
	}

	// serve flags live on the root so the bare command serves too
	flags = append(flags, serveFlags()...)

	return &cli.Command{
		Name:    "boardsmith",
		Usage:   "validate, generate and edit game boards",
		Version: Version,
		Flags:   flags,
		Before:  a.before,
		Action:  a.serve,
		Commands: []*cli.Command{
			a.serveCommand(),
			a.mcpCommand(),
			a.validateCommand(),
			a.generateCommand(),
			a.watchCommand(),
		},
	}
}

// before configures logging for every command
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := cmd.String("log-level")
	if cmd.Bool("debug") {
		level = "debug"
	}
	if err := configureLogger(a.log, level, cmd.String("log-format")); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// configureLogger applies level and format to log
func configureLogger(log *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

// initializeServices wires the session and config managers into the board
// service. The session manager is returned for the cleanup routine.
func initializeServices(configDir string, log logrus.FieldLogger) (service.BoardService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	boardService := service.NewBoardService(sessionManager, configManager, service.WithLogger(log))
	return boardService, sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge, until ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

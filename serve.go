package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/boardsmith/api"
	"github.com/wricardo/boardsmith/game/service"
	"github.com/wricardo/boardsmith/transport/mcp"
	"github.com/wricardo/boardsmith/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the REST, WebSocket and MCP HTTP server",
		Action: a.serve,
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "host to bind to",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "port to listen on",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.DurationFlag{
			Name:    "session-ttl",
			Value:   24 * time.Hour,
			Usage:   "drop sessions idle for longer than this",
			Sources: cli.EnvVars("SESSION_TTL"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "expose the server through an ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "custom ngrok domain",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

// serve runs the HTTP server until ctx is cancelled
func (a *app) serve(ctx context.Context, cmd *cli.Command) error {
	log := a.log.WithField("component", "server")

	boardService, sessions, err := initializeServices(cmd.String("config-dir"), a.log)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	hub := websocket.NewHub(a.log)
	mcpClient := mcp.NewClient("http://"+addr, a.log)
	handler := newRouter(api.NewServer(boardService, hub, a.log), mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		ttl := cmd.Duration("session-ttl")
		sessionCleanupRoutine(ctx, sessions, cleanupInterval(ttl), ttl, log)
		return nil
	})

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Info("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler, log)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server shutdown error")
		}
		return nil
	})

	err = g.Wait()
	log.Info("Server stopped")
	return err
}

// cleanupInterval checks for idle sessions a few times per TTL, at most hourly
func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval <= 0 || interval > time.Hour {
		interval = time.Hour
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// newRouter mounts the API at the root and the MCP message endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mainRouter
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler, log logrus.FieldLogger) {
	if authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.WithField("domain", domain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	log.Info("Starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	log.WithField("url", tun.URL()).Info("Ngrok tunnel established")
	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		log.WithError(err).Warn("Ngrok server error")
	}
	log.Info("Ngrok tunnel closed")
}

func (a *app) mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "run an MCP stdio server backed by the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "API server to reuse when it is already running",
				Sources: cli.EnvVars("BOARDSMITH_API_URL"),
			},
		},
		Action: a.runMCP,
	}
}

// runMCP serves MCP over stdio. It reuses the API at --api-url when it
// answers, otherwise it starts an internal API on a random loopback port.
func (a *app) runMCP(ctx context.Context, cmd *cli.Command) error {
	log := a.log.WithField("component", "mcp")

	baseURL := cmd.String("api-url")
	if !apiAvailable(ctx, baseURL) {
		log.WithField("url", baseURL).Info("No external API server found, starting internal HTTP server")

		boardService, _, err := initializeServices(cmd.String("config-dir"), a.log)
		if err != nil {
			return err
		}
		internalURL, shutdown, err := startInternalAPI(ctx, boardService, a.log)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	}

	log.WithField("api", baseURL).Info("MCP stdio server ready")
	if err := server.ServeStdio(mcp.NewClient(baseURL, a.log).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether an API server answers its health check
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the API on 127.0.0.1 at a random port. The listener
// is bound before returning so the URL is usable immediately.
func startInternalAPI(ctx context.Context, boardService service.BoardService, log *logrus.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(boardService, hub, log)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Internal HTTP server error")
		}
	}()

	shutdown := func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		httpServer.Shutdown(shutdownCtx)
	}
	return "http://" + listener.Addr().String(), shutdown, nil
}

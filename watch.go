package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	gorillaws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/boardsmith/game/service"
	"github.com/wricardo/boardsmith/transport/websocket"
)

func (a *app) watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "print board updates of one or more sessions as they happen",
		ArgsUsage: "SESSION_ID...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "API server the sessions live on",
				Sources: cli.EnvVars("BOARDSMITH_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sessionIDs := cmd.Args().Slice()
			if len(sessionIDs) == 0 {
				return cli.Exit("watch: at least one session ID is required", 2)
			}
			return watchSessions(ctx, cmd.String("api-url"), sessionIDs, a.stdout, a.log)
		},
	}
}

// watchSessions follows every session until it is deleted or ctx is done
func watchSessions(ctx context.Context, apiURL string, sessionIDs []string, w io.Writer, log logrus.FieldLogger) error {
	out := &syncWriter{w: w}
	g, ctx := errgroup.WithContext(ctx)

	for _, id := range sessionIDs {
		wsURL, err := sessionSocketURL(apiURL, id)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watchSession(ctx, wsURL, id, out, log)
		})
	}
	return g.Wait()
}

// sessionSocketURL turns the API base URL into the /ws URL of a session
func sessionSocketURL(apiURL, sessionID string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL %q: %w", apiURL, err)
	}

	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	q := u.Query()
	q.Set("session", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// watchMessage is a hub message with the payload left undecoded
type watchMessage struct {
	SessionID string          `json:"session_id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
}

// watchSession prints the events of one session. It returns nil when the
// session is deleted or ctx is cancelled.
func watchSession(ctx context.Context, wsURL, sessionID string, w io.Writer, log logrus.FieldLogger) error {
	log = log.WithField("session_id", sessionID)

	conn, _, err := gorillaws.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to session %s: %w", sessionID, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	log.Info("Watching session")
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("session %s: %w", sessionID, err)
		}

		var msg watchMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Warn("Skipping malformed message")
			continue
		}

		finished, err := printEvent(w, sessionID, msg)
		if err != nil {
			log.WithError(err).WithField("event", msg.Event).Warn("Skipping unreadable event")
			continue
		}
		if finished {
			return nil
		}
	}
}

// printEvent writes one event and reports whether the session is gone
func printEvent(w io.Writer, sessionID string, msg watchMessage) (bool, error) {
	switch msg.Event {
	case websocket.EventBoardUpdate:
		var info service.SessionInfo
		if err := json.Unmarshal(msg.Data, &info); err != nil {
			return false, err
		}
		fmt.Fprintf(w, "[%s] revision %d\n%s\n", sessionID, info.Revision, info.Rendered)
	case websocket.EventValidation:
		var report service.ValidationReport
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			return false, err
		}
		if report.Playable {
			fmt.Fprintf(w, "[%s] playable (%d searches)\n", sessionID, report.SearchesPerformed)
		} else {
			reason := report.Reason
			if reason == "" {
				reason = report.StructureError
			}
			fmt.Fprintf(w, "[%s] not playable: %s\n", sessionID, reason)
		}
	case websocket.EventSessionDeleted:
		fmt.Fprintf(w, "[%s] session deleted\n", sessionID)
		return true, nil
	default:
		fmt.Fprintf(w, "[%s] %s\n", sessionID, msg.Event)
	}
	return false, nil
}

// syncWriter serializes writes from concurrent watchers
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

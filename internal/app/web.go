// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/state_feedback/internal/bus"
	"github.com/relabs-tech/state_feedback/internal/config"
	"github.com/relabs-tech/state_feedback/internal/feedback"
	"github.com/relabs-tech/state_feedback/internal/latest"
	"github.com/relabs-tech/state_feedback/internal/pose"
	"github.com/relabs-tech/state_feedback/internal/reconfigure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	// streamInterval is how often websocket clients are checked for new poses.
	streamInterval  = 50 * time.Millisecond
	shutdownTimeout = 2 * time.Second
)

// dashboard caches what the web UI shows.
type dashboard struct {
	selected   latest.Value[pose.VehicleState]
	candidates latest.Value[feedback.Candidates]
	state      latest.Value[reconfigure.State]
}

// candidateView is one row of GET /api/candidates.
type candidateView struct {
	Index    int               `json:"index"`
	Name     string            `json:"name"`
	Selected bool              `json:"selected"`
	State    pose.VehicleState `json:"state"`
}

// streamFrame is one websocket message.
type streamFrame struct {
	Feedback string            `json:"feedback"`
	Version  uint64            `json:"version"`
	State    pose.VehicleState `json:"state"`
}

// RunWeb serves the feedback dashboard until ctx is done.
func RunWeb(ctx context.Context, cfg *config.Config) error {
	client, err := bus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Close()

	d := &dashboard{}
	if err := d.subscribe(client, cfg); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: newWebMux(d, client, cfg),
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	log.Printf("web: server listening on %s", srv.Addr)
	return serve(ctx, srv, ln, shutdownTimeout)
}

// serve runs srv on ln and shuts it down gracefully once ctx is done.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web: shutdown error: %v", err)
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (d *dashboard) subscribe(client *bus.Client, cfg *config.Config) error {
	if err := bus.Subscribe(client, cfg.TopicFeedbackSelected, d.selected.Set); err != nil {
		return err
	}
	if err := bus.Subscribe(client, cfg.TopicFeedbackSelectState, d.state.Set); err != nil {
		return err
	}
	if cfg.TopicCandidates != "" {
		if err := bus.Subscribe(client, cfg.TopicCandidates, d.candidates.Set); err != nil {
			return err
		}
	}
	return nil
}

func newWebMux(d *dashboard, client *bus.Client, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Latest selected pose
	mux.HandleFunc("GET /api/feedback", func(w http.ResponseWriter, r *http.Request) {
		p, ok := d.selected.Load()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	mux.HandleFunc("GET /api/candidates", func(w http.ResponseWriter, r *http.Request) {
		c, ok := d.candidates.Load()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		st := d.state.Get()
		views := make([]candidateView, 0, feedback.NumFeedbacks)
		for i, p := range c {
			views = append(views, candidateView{
				Index:    i,
				Name:     feedback.Feedback(i).String(),
				Selected: i == st.Feedback,
				State:    p,
			})
		}
		writeJSON(w, http.StatusOK, views)
	})

	mux.HandleFunc("GET /api/feedback/select", func(w http.ResponseWriter, r *http.Request) {
		st, ok := d.state.Load()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, st)
	})

	// Forward a selection request to the selector node. The node applies it
	// asynchronously; the new state shows up on GET /api/feedback/select.
	mux.HandleFunc("POST /api/feedback/select", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1024))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req, err := parseSelectRequest(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := client.Publish(cfg.TopicFeedbackSelect, false, req); err != nil {
			log.Printf("web: select request publish error: %v", err)
			http.Error(w, "broker unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusAccepted, req)
	})

	mux.HandleFunc("GET /api/status.png", func(w http.ResponseWriter, r *http.Request) {
		sel, haveSel := d.selected.Load()
		st, haveState := d.state.Load()
		img := renderStatusCard(statusLines(sel, haveSel, st, haveState))

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := png.Encode(w, img); err != nil {
			log.Printf("web: png encode error: %v", err)
		}
	})

	mux.HandleFunc("GET /ws/feedback", d.handleStream)

	// Static files from the web directory as the root
	mux.Handle("/", http.FileServer(http.Dir(cfg.WebStaticDir)))

	return mux
}

// handleStream pushes every new selected pose to a websocket client.
func (d *dashboard) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Reader goroutine only watches for the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			n := d.selected.Count()
			if n == sent {
				continue
			}
			sent = n
			st := d.state.Get()
			frame := streamFrame{
				Feedback: feedback.Feedback(st.Feedback).String(),
				Version:  st.Version,
				State:    d.selected.Get(),
			}
			if err := conn.WriteJSON(frame); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

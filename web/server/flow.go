package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/df07/go-nearfield-flow/pkg/flow"
	"github.com/df07/go-nearfield-flow/pkg/scene"
)

// TraceEvent is one streamline sent via SSE, in plane coordinates
type TraceEvent struct {
	SID         int          `json:"sid"`
	Seed        [3]float64   `json:"seed"`
	Points      [][2]float64 `json:"points,omitempty"`
	Length      float64      `json:"length"`
	Refinements int          `json:"refinements"`
	Termination string       `json:"termination,omitempty"`
	Error       string       `json:"error,omitempty"`
	Total       int          `json:"total"`
}

// CompleteEvent closes a flow stream
type CompleteEvent struct {
	Summary   flow.Summary `json:"summary"`
	ElapsedMs int64        `json:"elapsedMs"`
}

// handleFlow traces a bundle and streams each streamline as it completes,
// interleaved with log events. Only this goroutine writes to w.
func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	req, err := parsePlotRequest(r.URL.Query())
	if err != nil {
		s.sendSSEError(w, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	sc, err := s.buildScene(req)
	if err != nil {
		s.sendSSEError(w, err.Error())
		return
	}
	if sc.Config.Plot.FixedStep {
		s.sendSSEError(w, "fixed-step lines are not streamed, use /api/streamlines")
		return
	}
	seeds, err := sc.Seeds()
	if err != nil {
		s.sendSSEError(w, err.Error())
		return
	}

	consoleChan := make(chan ConsoleMessage, 50)
	logger := NewConsoleLogger(consoleChan, s.logger.Handler(), slog.LevelInfo)
	logger.Info("tracing streamlines", "scene", req.Scene, "seeds", len(seeds), "plane", sc.Config.Plot.Plane)

	scale := 1.0
	if req.Physical {
		scale = sc.Scale()
	}

	startTime := time.Now()
	results := sc.Bundle(logger).Stream(ctx, seeds)
	var collected []flow.TraceResult

	for results != nil {
		select {
		case msg := <-consoleChan:
			s.sendConsole(w, msg)
		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			collected = append(collected, res)
			s.metrics.observeResult(res)
			s.sendTrace(w, traceEvent(sc, res, scale, len(seeds)))
		case <-ctx.Done():
			return
		}
	}
	s.metrics.observeFlow(startTime)
	if ctx.Err() != nil {
		return
	}

	sum := flow.Summarize(collected)
	logger.Info("bundle complete", "lines", sum.Lines, "failed", sum.Failed, "capped", sum.Capped)
	s.drainConsole(w, consoleChan)

	data, err := json.Marshal(CompleteEvent{Summary: sum, ElapsedMs: time.Since(startTime).Milliseconds()})
	if err != nil {
		s.sendSSEError(w, err.Error())
		return
	}
	s.sendSSEEvent(w, "complete", string(data))
}

func traceEvent(sc *scene.Scene, res flow.TraceResult, scale float64, total int) TraceEvent {
	ev := TraceEvent{
		SID:   res.TaskID,
		Seed:  [3]float64{res.Seed.X * scale, res.Seed.Y * scale, res.Seed.Z * scale},
		Total: total,
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
		return ev
	}
	pts := res.Trajectory.Project(sc.Config.PlotPlane())
	ev.Points = make([][2]float64, len(pts))
	for i, p := range pts {
		ev.Points[i] = [2]float64{p.U * scale, p.V * scale}
	}
	ev.Length = res.Stats.Length * scale
	ev.Refinements = res.Stats.Refinements
	ev.Termination = res.Stats.Termination.String()
	return ev
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func (s *Server) sendTrace(w http.ResponseWriter, ev TraceEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, "trace", string(data))
}

func (s *Server) sendConsole(w http.ResponseWriter, msg ConsoleMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, "log", string(data))
}

// drainConsole forwards messages already queued without waiting for more
func (s *Server) drainConsole(w http.ResponseWriter, consoleChan <-chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			s.sendConsole(w, msg)
		default:
			return
		}
	}
}

// sendSSEError sends an error via SSE
func (s *Server) sendSSEError(w http.ResponseWriter, message string) error {
	return s.sendSSEEvent(w, "error", message)
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	if flusher, ok := w.(http.Flusher); ok {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}

package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"collegedecision/internal/decision"
	"collegedecision/internal/listing"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/ticker"
)

// sseEvent is one server-sent event.
type sseEvent struct {
	Event string
	ID    string
	Retry int
	Data  any
}

// writeSSE writes ev and flushes it to the client.
func writeSSE(w *bufio.Writer, f http.Flusher, ev sseEvent) error {
	if ev.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if ev.Retry > 0 {
		if _, err := fmt.Fprintf(w, "retry: %d\n", ev.Retry); err != nil {
			return fmt.Errorf("failed to write retry: %w", err)
		}
	}
	if ev.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", ev.Event); err != nil {
			return fmt.Errorf("failed to write event type: %w", err)
		}
	}
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	f.Flush()
	return nil
}

// tickPayload is the data of a "tick" event.
type tickPayload struct {
	decision.Snapshot
	EarlyLabel   string `json:"earlyLabel,omitempty"`
	RegularLabel string `json:"regularLabel"`
}

// handleStream pushes a countdown snapshot on every tick until the client
// goes away. Each snapshot is computed from one sampled instant.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	u, err := listing.FindByDomain(s.universities(r), r.PathValue("domain"))
	if err != nil {
		writeError(w, http.StatusNotFound, "university not found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Slow clients drop ticks instead of queueing them.
	ticks := make(chan time.Time, 1)
	loop := ticker.New(s.tick, func(now time.Time) {
		select {
		case ticks <- now:
		default:
		}
	})
	loop.SetClock(s.now)
	if err := loop.Start(r.Context()); err != nil {
		appLog.Error("stream: ticker start failed", err, "domain", u.Domain)
		return
	}
	defer loop.Stop()

	bw := bufio.NewWriter(w)
	var seq int64
	for {
		select {
		case <-r.Context().Done():
			return
		case now := <-ticks:
			seq++
			snap := decision.Snap(u, now)
			payload := tickPayload{
				Snapshot:     snap,
				EarlyLabel:   countdownLabel(snap.Early),
				RegularLabel: countdownLabel(&snap.Regular),
			}
			ev := sseEvent{Event: "tick", ID: strconv.FormatInt(seq, 10), Data: payload}
			if seq == 1 {
				ev.Retry = 2000
			}
			if err := writeSSE(bw, flusher, ev); err != nil {
				appLog.Debug("stream: client gone", "domain", u.Domain, "err", err.Error())
				return
			}
		}
	}
}

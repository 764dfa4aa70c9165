// Package web serves a small JSON status endpoint with the current fix and
// stream counters. Intended for debugging and dashboards, not control.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gnsswatch/internal/fix"
	"gnsswatch/internal/gnss"
)

type statusPayload struct {
	Service   string        `json:"service"`
	NowUTC    string        `json:"now_utc"`
	UptimeSec int64         `json:"uptime_sec"`
	Counters  gnss.Counters `json:"counters"`
	Fix       fix.Record    `json:"fix"`
}

// Handler exposes GET /status over the given service.
func Handler(svc *gnss.Service) http.Handler {
	start := time.Now().UTC()
	mux := http.NewServeMux()

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		now := time.Now().UTC()
		payload := statusPayload{
			Service:   "gnsswatch",
			NowUTC:    now.Format(time.RFC3339Nano),
			UptimeSec: int64(now.Sub(start).Seconds()),
			Counters:  svc.Counters(),
			Fix:       svc.Snapshot(),
		}
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	return mux
}

// Serve runs the status server until ctx is canceled. Listen errors are
// returned; shutdown errors are ignored.
func Serve(ctx context.Context, addr string, svc *gnss.Service) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

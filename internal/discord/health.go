package discord

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type healthStatus struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	DiscordConnected bool   `json:"discord_connected"`
	Transactions     int64  `json:"transactions"`
	Timestamp        string `json:"timestamp"`
}

// connected reports whether the gateway has delivered Ready and not dropped since.
func (b *Bot) connected() bool {
	if b.session == nil {
		return false
	}
	b.session.RLock()
	defer b.session.RUnlock()
	return b.session.DataReady
}

func (b *Bot) healthHandler(w http.ResponseWriter, r *http.Request) {
	connected := b.connected()
	status := healthStatus{
		Status:           "healthy",
		Uptime:           time.Since(b.startTime).Round(time.Second).String(),
		DiscordConnected: connected,
		Timestamp:        time.Now().Format(time.RFC3339),
	}

	code := http.StatusOK
	if !connected {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	if b.svc.DB != nil {
		n, err := b.svc.DB.CountTransactions(r.Context())
		if err != nil {
			b.log.Error().Err(err).Msg("health check cannot reach the database")
			status.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		status.Transactions = n
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		b.log.Warn().Err(err).Msg("write health response")
	}
}

func (b *Bot) startHealthServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", b.healthHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error().Err(err).Str("addr", addr).Msg("health server stopped")
		}
	}()
	return srv
}

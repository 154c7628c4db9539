package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/metrics"
	"github.com/pythia-trading/pythia-console/internal/poller"
	"github.com/pythia-trading/pythia-console/internal/view"
)

// StatusSource yields the current poll status for request-time rendering.
type StatusSource interface {
	Status() poller.Status
}

// Server is the web board: an HTTP view of the dashboard plus a websocket
// feed of every refresh.
type Server struct {
	hub     *Hub
	metrics *metrics.Registry
	source  StatusSource
	httpSrv *http.Server
	started time.Time
}

// NewServer wires the board routes. source supplies the dashboard state;
// Publish pushes refreshes to websocket clients.
func NewServer(listen string, source StatusSource, reg *metrics.Registry) *Server {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	s := &Server{
		hub:     NewHub(reg),
		metrics: reg,
		source:  source,
		started: time.Now(),
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods("GET")
	router.HandleFunc("/api/dashboard", s.handleDashboard).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	router.Handle("/metrics", reg.Handler()).Methods("GET")
	router.HandleFunc("/ws", s.hub.serveWS)

	s.httpSrv = &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Publish broadcasts a refreshed status to every connected client. Wire it
// as the poller's update listener.
func (s *Server) Publish(st poller.Status) {
	s.hub.Broadcast(Display(st))
}

// Handler exposes the router, primarily for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until ctx is canceled, then drains connections gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go s.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", s.httpSrv.Addr).
			Str("dashboard", fmt.Sprintf("http://%s/", s.httpSrv.Addr)).
			Str("metrics", fmt.Sprintf("http://%s/metrics", s.httpSrv.Addr)).
			Msg("Board listening")

		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("board server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("board shutdown: %w", err)
	}

	log.Info().Msg("Board shutdown complete")
	return nil
}

// Display renders a poll status as the board's display model.
func Display(st poller.Status) view.DisplayModel {
	model := view.Build(st.Snapshot)
	model.Stale = st.Stale
	if st.FetchFailed {
		model.Error = st.LastError
	}
	return model
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Display(s.source.Status()))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	st := s.source.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"uptime_secs":  int(time.Since(s.started).Seconds()),
		"clients":      s.hub.ClientCount(),
		"polls":        st.Polls,
		"fetch_failed": st.FetchFailed,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode board response")
	}
}

// indexHTML is the single-page board. It renders /api/dashboard once, then
// follows the websocket feed.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pythia Board</title>
<style>
body { font-family: monospace; background: #10141a; color: #d8dee9; margin: 2em; }
h1 { font-size: 1.2em; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #2e3440; padding: 4px 10px; text-align: left; }
.positive { color: #a3be8c; }
.negative { color: #bf616a; }
.neutral { color: #4c566a; }
#stale { color: #ebcb8b; display: none; }
#error { color: #bf616a; display: none; }
</style>
</head>
<body>
<h1>Pythia Board</h1>
<div>Last updated: <span id="updated">--</span> <span id="stale">(stale)</span></div>
<div id="error"></div>
<table id="summary"></table>
<h1>Strategies</h1>
<table id="strategies"></table>
<h1>Recent Trades</h1>
<table id="trades"></table>
<script>
function cell(m) { return '<td class="' + m.class + '">' + m.value + '</td>'; }
function render(d) {
  document.getElementById('updated').textContent = d.last_updated;
  document.getElementById('stale').style.display = d.stale ? 'inline' : 'none';
  var err = document.getElementById('error');
  err.style.display = d.error ? 'block' : 'none';
  err.textContent = d.error || '';
  var s = d.summary;
  document.getElementById('summary').innerHTML =
    '<tr><th>PnL</th><th>Trades</th><th>Win rate</th><th>Drawdown</th><th>Max DD</th><th>Sharpe</th><th>Sortino</th><th>PF</th></tr>' +
    '<tr>' + cell(s.total_pnl) + '<td>' + s.total_trades + '</td>' + cell(s.win_rate) +
    cell(s.current_drawdown) + cell(s.max_drawdown) + cell(s.sharpe_ratio) +
    cell(s.sortino_ratio) + cell(s.profit_factor) + '</tr>';
  document.getElementById('strategies').innerHTML =
    '<tr><th>Strategy</th><th>Symbol</th><th>Interval</th><th>Return</th><th>Sharpe</th><th>Max DD</th><th>Win rate</th><th>PF</th></tr>' +
    d.strategies.map(function(r) {
      return '<tr><td>' + r.strategy + '</td><td>' + r.symbol + '</td><td>' + r.interval + '</td>' +
        cell(r.total_return) + cell(r.sharpe_ratio) + cell(r.max_drawdown) +
        cell(r.win_rate) + cell(r.profit_factor) + '</tr>';
    }).join('');
  document.getElementById('trades').innerHTML =
    '<tr><th>Time</th><th>Strategy</th><th>Symbol</th><th>Side</th><th>PnL</th><th>Status</th></tr>' +
    d.trades.map(function(t) {
      return '<tr><td>' + t.time + '</td><td>' + t.strategy + '</td><td>' + t.symbol + '</td><td>' +
        t.side + '</td>' + cell(t.pnl) + '<td>' + t.status + '</td></tr>';
    }).join('');
}
fetch('/api/dashboard').then(function(r) { return r.json(); }).then(render);
var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
var ws = new WebSocket(proto + location.host + '/ws');
ws.onmessage = function(ev) { render(JSON.parse(ev.data)); };
</script>
</body>
</html>
`

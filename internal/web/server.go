package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/vadiminshakov/swapsim/internal/domain"
	"github.com/vadiminshakov/swapsim/internal/events"
)

// SessionEngine is the slice of the swap engine the web surface drives.
type SessionEngine interface {
	SelectSource(code string) error
	SelectTarget(code string) error
	EditAmount(raw string) error
	Invert() error
	UseMax() error
	RequestTrade() (domain.TradeSnapshot, error)
	Confirm(ctx context.Context) (<-chan error, error)
	CancelConfirmation() error
	Acknowledge()
	SnapshotView() events.SwapSnapshot
}

// Server exposes HTTP endpoints serving a minimal HTML UI, an SSE stream
// of session snapshots, and JSON event endpoints driving the engine.
type Server struct {
	Addr        string
	Engine      SessionEngine
	Broadcaster *events.SnapshotBroadcaster
}

// NewServer creates a new web server instance.
func NewServer(addr string, engine SessionEngine, broadcaster *events.SnapshotBroadcaster) *Server {
	return &Server{Addr: addr, Engine: engine, Broadcaster: broadcaster}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/session", s.handleSession)
	mux.HandleFunc("/session/stream", s.handleStream)
	mux.HandleFunc("/session/event", s.handleEvent)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Engine.SnapshotView()); err != nil {
		log.Printf("session snapshot encode: %v", err)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Broadcaster == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot broadcaster not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	sub := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(sub)

	send := func(snap events.SwapSnapshot) error {
		payload, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: session\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return nil
	}

	// initial state so a fresh page renders without waiting for an event
	if err := send(s.Engine.SnapshotView()); err != nil {
		log.Printf("session stream initial send: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case snap, ok := <-sub:
			if !ok {
				return
			}
			if err := send(snap); err != nil {
				log.Printf("session stream send err: %v", err)
				return
			}
		}
	}
}

// eventRequest is one user action against the swap session.
type eventRequest struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	var err error
	switch req.Type {
	case "select-source":
		err = s.Engine.SelectSource(req.Value)
	case "select-target":
		err = s.Engine.SelectTarget(req.Value)
	case "edit-amount":
		err = s.Engine.EditAmount(req.Value)
	case "invert":
		err = s.Engine.Invert()
	case "use-max":
		err = s.Engine.UseMax()
	case "request-trade":
		_, err = s.Engine.RequestTrade()
	case "confirm":
		// settlement continues past this request's lifetime
		_, err = s.Engine.Confirm(context.Background())
	case "cancel":
		err = s.Engine.CancelConfirmation()
	case "acknowledge":
		s.Engine.Acknowledge()
	default:
		http.Error(w, "unknown event type", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(s.Engine.SnapshotView())
}

// Single-session swap form driven by the SSE stream.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>swapsim</title>
  <style>
    body { font-family: monospace; background: #111; color: #eee; max-width: 480px; margin: 40px auto; }
    select, input, button { font-family: inherit; margin: 4px 0; padding: 6px; width: 100%; box-sizing: border-box; }
    .insufficient { color: #f66; }
    .message { color: #fa0; min-height: 1.2em; }
    .balances { color: #9c9; white-space: pre; }
  </style>
</head>
<body>
  <h2>Currency Swap Simulator</h2>
  <select id="source"></select>
  <input id="amount" placeholder="0" />
  <button onclick="post('invert')">&#8645;</button>
  <select id="target"></select>
  <p id="quote">0</p>
  <p id="message" class="message"></p>
  <button id="trade" onclick="post('request-trade')">Trade</button>
  <button onclick="post('confirm')">Confirm</button>
  <button onclick="post('cancel')">Cancel</button>
  <button onclick="post('use-max')">Max</button>
  <pre id="balances" class="balances"></pre>
  <script>
    function post(type, value) {
      fetch('/session/event', {method: 'POST', body: JSON.stringify({type: type, value: value})});
    }
    document.getElementById('source').onchange = function() { post('select-source', this.value); };
    document.getElementById('target').onchange = function() { post('select-target', this.value); };
    document.getElementById('amount').oninput = function() { post('edit-amount', this.value); };
    var es = new EventSource('/session/stream');
    es.addEventListener('session', function(ev) {
      var s = JSON.parse(ev.data);
      var fill = function(id, exclude, selected) {
        var el = document.getElementById(id);
        el.innerHTML = '';
        s.options.forEach(function(o) {
          if (o.code === exclude) return;
          var opt = document.createElement('option');
          opt.value = o.code; opt.textContent = o.code;
          if (o.code === selected) opt.selected = true;
          el.appendChild(opt);
        });
      };
      fill('source', s.target, s.source);
      fill('target', s.source, s.target);
      document.getElementById('quote').textContent = s.quote;
      document.getElementById('message').textContent = s.message || '';
      var amount = document.getElementById('amount');
      if (document.activeElement !== amount) amount.value = s.amount;
      amount.className = s.insufficient ? 'insufficient' : '';
      var locked = s.status === 'processing';
      ['source','target','amount','trade'].forEach(function(id) {
        document.getElementById(id).disabled = locked;
      });
      var lines = [];
      Object.keys(s.balances).sort().forEach(function(c) {
        if (s.balances[c] !== '0') lines.push(c + ': ' + s.balances[c]);
      });
      document.getElementById('balances').textContent = lines.join('\n');
    });
  </script>
</body>
</html>
`

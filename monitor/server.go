// Package monitor streams a running Search's progress to any number of
// browser clients over a websocket, adapted from the codebase's single-client
// view server: lifecycle events are pushed onto a small buffered channel,
// throttled drop-if-busy rather than queued, then fanned out to every
// connected client with channerics.Broadcast.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"

	"lsearch"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait        = 1 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	closeGracePeriod = 10 * time.Second
)

// EventType identifies which SearchListener callback produced an Event.
type EventType string

const (
	EventSearchStarted   EventType = "search_started"
	EventSearchStopped   EventType = "search_stopped"
	EventStepCompleted   EventType = "step_completed"
	EventNewBestSolution EventType = "new_best_solution"
)

// Event is the JSON payload streamed to clients.
type Event struct {
	Type      EventType `json:"type"`
	Name      string    `json:"name"`
	Steps     int64     `json:"steps"`
	BestValue float64   `json:"bestValue,omitempty"`
	HasBest   bool      `json:"hasBest"`
	Time      time.Time `json:"time"`
}

// Server implements lsearch.SearchListener, publishing every lifecycle
// callback as an Event to connected websocket clients. maxClients taps are
// allocated once from channerics.Broadcast; a client that connects while all
// taps are claimed is refused rather than queued.
type Server struct {
	src  chan Event
	taps []<-chan Event

	mu    sync.Mutex
	free  []int
	claim map[int]bool

	done chan struct{}
}

// NewServer allocates a Server able to serve up to maxClients concurrent
// websocket connections.
func NewServer(maxClients int) *Server {
	if maxClients < 1 {
		maxClients = 1
	}
	s := &Server{
		src:   make(chan Event, 1),
		done:  make(chan struct{}),
		claim: make(map[int]bool, maxClients),
	}
	s.taps = channerics.Broadcast(s.done, s.src, maxClients)
	s.free = make([]int, maxClients)
	for i := range s.free {
		s.free[i] = i
	}
	return s
}

// Close stops the broadcast fan-out. Any serving goroutines observe this via
// their per-connection context, not via done directly.
func (s *Server) Close() { close(s.done) }

func (s *Server) publish(ev Event) {
	select {
	case s.src <- ev:
	default:
		// Busy: drop rather than block the search's worker goroutine or
		// queue stale events behind a fresh one.
	}
}

// SearchStarted implements lsearch.SearchListener.
func (s *Server) SearchStarted(search *lsearch.Search) {
	s.publish(Event{Type: EventSearchStarted, Name: search.Name(), Steps: search.Steps()})
}

// SearchStopped implements lsearch.SearchListener.
func (s *Server) SearchStopped(search *lsearch.Search) {
	ev := Event{Type: EventSearchStopped, Name: search.Name(), Steps: search.Steps()}
	if _, eval, ok := search.BestSolution(); ok {
		ev.BestValue, ev.HasBest = eval.Value(), true
	}
	s.publish(ev)
}

// StepCompleted implements lsearch.SearchListener.
func (s *Server) StepCompleted(search *lsearch.Search, numSteps int64) {
	s.publish(Event{Type: EventStepCompleted, Name: search.Name(), Steps: numSteps})
}

// NewBestSolution implements lsearch.SearchListener.
func (s *Server) NewBestSolution(search *lsearch.Search, best lsearch.Solution, eval lsearch.Evaluation) {
	s.publish(Event{
		Type:      EventNewBestSolution,
		Name:      search.Name(),
		Steps:     search.Steps(),
		BestValue: eval.Value(),
		HasBest:   true,
	})
}

// claimTap reserves a free broadcast tap, returning false if every tap is
// already in use by another client.
func (s *Server) claimTap() (int, <-chan Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.free) == 0 {
		return 0, nil, false
	}
	idx := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.claim[idx] = true
	return idx, s.taps[idx], true
}

func (s *Server) releaseTap(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claim, idx)
	s.free = append(s.free, idx)
}

// Router builds the gorilla/mux routes for the index page and websocket
// upgrade endpoint.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket)
	return r
}

// Serve blocks, serving the router on addr.
func (s *Server) Serve(addr string) error {
	if err := http.ListenAndServe(addr, s.Router()); err != nil {
		return fmt.Errorf("monitor: serve: %w", err)
	}
	return nil
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := indexTemplate.Execute(w, nil); err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	idx, tap, ok := s.claimTap()
	if !ok {
		http.Error(w, "monitor: too many connected clients", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseTap(idx)

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("monitor: upgrade:", err)
		return
	}
	defer closeWebsocket(ws)

	s.publishEvents(r.Context(), ws, tap)
}

// publishEvents pumps tap to ws, answering pings and watching for client
// disconnects, in the same shape as the codebase's existing single-client
// publish loop, generalized to one tap per client.
func (s *Server) publishEvents(ctx context.Context, ws *websocket.Conn, tap <-chan Event) {
	pubCtx, cancelPub := context.WithCancel(ctx)
	defer cancelPub()
	pinger := channerics.NewTicker(pubCtx.Done(), pingPeriod)
	lastPong := time.Now()

	pong := make(chan struct{})
	defer close(pong)
	ws.SetPongHandler(func(string) error {
		pong <- struct{}{}
		return nil
	})

	go func() {
		for {
			select {
			case <-pubCtx.Done():
				return
			default:
				if _, _, err := ws.ReadMessage(); err != nil {
					cancelPub()
					if isClosure(err) {
						return
					}
					log.Println("monitor: read pump:", err)
					return
				}
			}
		}
	}()

	for {
		select {
		case <-pubCtx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > pingPeriod*2 {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		case ev, open := <-tap:
			if !open {
				return
			}
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				if isError(err) {
					log.Printf("monitor: publish failed: %v", err)
				}
				return
			}
		}
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	ws.Close()
}

var indexTemplate = template.Must(template.New("index.html").Parse(`<!DOCTYPE html>
<html>
<head><title>search monitor</title></head>
<body>
<h1>search monitor</h1>
<ul id="events"></ul>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
const list = document.getElementById("events");
ws.onmessage = (msg) => {
	const ev = JSON.parse(msg.data);
	const li = document.createElement("li");
	li.textContent = ev.time + " " + ev.type + " steps=" + ev.steps +
		(ev.hasBest ? " best=" + ev.bestValue : "");
	list.prepend(li);
};
</script>
</body>
</html>
`))

var _ lsearch.SearchListener = (*Server)(nil)

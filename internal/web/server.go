package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

//go:embed static
var staticFiles embed.FS

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Server serves the plot page, the latest analysis result and a websocket
// feed of live updates.
type Server struct {
	mu        sync.RWMutex
	log       *log.Logger
	clients   map[*websocketClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
	result    []byte
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// Message is the envelope of everything pushed over the websocket.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		log:       logger,
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	static, _ := fs.Sub(staticFiles, "static")
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(static)))
	mux.HandleFunc("/api/result", s.handleResult)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go s.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Printf("web: serving plots on http://localhost%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SetResult stores v as the response of /api/result and pushes it to
// connected clients.
func (s *Server) SetResult(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.result = data
	s.mu.Unlock()
	return s.send(Message{Type: "result", Data: json.RawMessage(data)})
}

// Publish pushes a live update to connected clients. Updates are dropped
// when the broadcast queue is full.
func (s *Server) Publish(v any) error {
	return s.send(Message{Type: "update", Data: v})
}

func (s *Server) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case s.broadcast <- data:
	default:
	}
	return nil
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	data := s.result
	s.mu.RUnlock()
	if data == nil {
		http.Error(w, "no result yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("web: websocket upgrade: %v", err)
		return
	}
	client := &websocketClient{conn: conn, send: make(chan []byte, 64), server: s}

	// New clients get the latest result before any update.
	s.mu.Lock()
	if s.result != nil {
		if data, err := json.Marshal(Message{Type: "result", Data: json.RawMessage(s.result)}); err == nil {
			client.send <- data
		}
	}
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			for client := range s.clients {
				close(client.send)
				delete(s.clients, client)
			}
			s.mu.Unlock()
			return
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) removeClient(c *websocketClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		close(c.send)
		delete(s.clients, c)
	}
}

func (c *websocketClient) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *websocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/esita/esita/pkg/chat"
	"github.com/esita/esita/pkg/config"
	"github.com/esita/esita/pkg/logger"
)

// Server is the presentation layer: it serves the embedded widget page and
// the JSON endpoints backing it. All conversation semantics live in the
// controller; the server only renders state.
type Server struct {
	cfg        config.WidgetConfig
	controller *chat.Controller
	store      *chat.Store
	server     *http.Server
}

type transcriptMessage struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
	Time string `json:"time"`
}

type sendRequest struct {
	Message string `json:"message"`
}

type statusResponse struct {
	Online  bool `json:"online"`
	Sending bool `json:"sending"`
}

func NewServer(cfg config.WidgetConfig, controller *chat.Controller, store *chat.Store) *Server {
	return &Server{
		cfg:        cfg,
		controller: controller,
		store:      store,
	}
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{Addr: addr, Handler: s.Handler()}

	logger.InfoCF("web", "Widget server started", map[string]interface{}{"addr": addr})

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("web", "Widget server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the route table, mainly so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUI)
	mux.HandleFunc("/chat/send", s.handleSend)
	mux.HandleFunc("/chat/poll", s.handlePoll)
	mux.HandleFunc("/chat/status", s.handleStatus)
	return mux
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	before := s.store.Len()
	s.controller.Send(r.Context(), req.Message)

	// A dropped send (empty input or one already in flight) appends nothing.
	msgs := s.store.Messages()
	w.Header().Set("Content-Type", "application/json")
	if len(msgs) == before {
		json.NewEncoder(w).Encode(map[string]bool{"accepted": false})
		return
	}

	last := msgs[len(msgs)-1]
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accepted": true,
		"reply":    toTranscriptMessage(last),
		"online":   s.controller.Online(),
	})
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	msgs := s.store.Messages()
	out := make([]transcriptMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toTranscriptMessage(m))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		Online:  s.controller.Online(),
		Sending: s.controller.Sending(),
	})
}

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, widgetHTML)
}

func toTranscriptMessage(m chat.Message) transcriptMessage {
	out := transcriptMessage{
		ID:   m.ID,
		Role: string(m.Role),
		Text: m.Text,
		Time: m.Time.Format(time.Kitchen),
	}
	if m.Role == chat.RoleAssistant {
		out.HTML = renderMarkdown(m.Text)
	}
	return out
}

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/esita/esita/pkg/chat"
	"github.com/esita/esita/pkg/config"
	"github.com/esita/esita/pkg/logger"
)

// History turns beyond this many are dropped to keep the prompt small.
const historyLimit = 6

const systemLine = "SYSTEM: You are Esita, a helpful assistant. Reply clearly and briefly unless the user asks for a long explanation."

var netlifyPreviewRe = regexp.MustCompile(`^https://.*\.netlify\.app$`)

// Server is the Esita chat backend: the widget's remote collaborator. It
// accepts one message plus a history window and forwards an assembled prompt
// to the configured Replier.
type Server struct {
	cfg     config.GatewayConfig
	replier Replier
	server  *http.Server
}

type chatRequest struct {
	Message string              `json:"message"`
	History []chat.HistoryEntry `json:"history"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func NewServer(cfg config.GatewayConfig, replier Replier) *Server {
	return &Server{cfg: cfg, replier: replier}
}

// Handler builds the full route table including CORS, usable directly by
// tests and the lambda entrypoint.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			for _, allowed := range s.cfg.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return netlifyPreviewRe.MatchString(origin)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{Addr: addr, Handler: s.Handler()}

	logger.InfoCF("gateway", "Gateway started", map[string]interface{}{
		"addr":  addr,
		"model": s.cfg.Model,
	})

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("gateway", "Gateway server error", map[string]interface{}{"error": err.Error()})
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

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Esita backend is running",
		"try":     []string{"/health", "/api/chat (POST)"},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	userMsg := strings.TrimSpace(req.Message)
	if userMsg == "" {
		writeJSON(w, http.StatusOK, chatResponse{Reply: "Please type something \U0001f642"})
		return
	}

	if s.replier == nil {
		writeJSON(w, http.StatusOK, chatResponse{
			Reply: "❌ Gemini API key not found. Set GEMINI_API_KEY in the environment.",
		})
		return
	}

	prompt := buildPrompt(userMsg, req.History)

	reply, err := s.replier.Reply(r.Context(), prompt)
	if err != nil {
		// Provider failures surface as a reply, matching the widget's
		// expectation of a text outcome for every 200.
		logger.ErrorCF("gateway", "Provider error", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusOK, chatResponse{Reply: fmt.Sprintf("❌ Server error: %v", err)})
		return
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "I couldn't generate a reply. Please try again."
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// buildPrompt flattens the history window into SYSTEM/USER/ASSISTANT lines
// ending with an open assistant turn. Only the trailing historyLimit entries
// are kept; blank turns are skipped and unknown roles coerced to user.
func buildPrompt(userMsg string, history []chat.HistoryEntry) string {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	lines := []string{systemLine}
	for _, h := range history {
		text := strings.TrimSpace(h.Text)
		if text == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(h.Role))
		if role != "user" && role != "assistant" {
			role = "user"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(role), text))
	}

	lines = append(lines, "USER: "+userMsg)
	lines = append(lines, "ASSISTANT:")
	return strings.Join(lines, "\n")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

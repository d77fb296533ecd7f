package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/tablecall/internal/auth"
	"github.com/example/tablecall/internal/booking"
	"github.com/example/tablecall/internal/engine"
	"github.com/example/tablecall/internal/vapi"
)

//go:embed templates/*.html static/*
var fs embed.FS

// Server exposes the provider webhooks, the read-only booking endpoints, and
// the operator dashboard. Auth may be nil, which disables the dashboard
// (tests, headless deployments).
type Server struct {
	Engine *engine.Engine
	Auth   *auth.Store
}

type tmplData struct {
	Title string
	User  int64

	Flash    string
	Bookings []booking.Booking
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.PathPrefix("/static/").Handler(http.FileServer(http.FS(fs)))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/vapi/tools", s.handleTools).Methods(http.MethodPost)
	r.HandleFunc("/vapi/events", s.handleEvents).Methods(http.MethodPost)
	r.HandleFunc("/bookings", s.handleBookings).Methods(http.MethodGet)

	if s.Auth != nil {
		r.HandleFunc("/login", s.handleLogin)
		r.HandleFunc("/logout", s.handleLogout)
		r.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleDashboard))).Methods(http.MethodGet)
	}

	return r
}

// Vapi webhooks.

type toolCallEnvelope struct {
	Message struct {
		ToolCalls []toolCall `json:"toolCalls"`
	} `json:"message"`
}

type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	var env toolCallEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	results := make([]toolResult, 0, len(env.Message.ToolCalls))
	for _, tc := range env.Message.ToolCalls {
		results = append(results, toolResult{
			ToolCallID: tc.ID,
			Result:     s.runTool(r.Context(), tc),
		})
	}

	writeJSON(w, map[string]any{"results": results})
}

func (s *Server) runTool(ctx context.Context, tc toolCall) string {
	switch tc.Function.Name {
	case "search_restaurants":
		var req engine.SearchRequest
		if err := decodeArgs(tc.Function.Arguments, &req); err != nil {
			log.Printf("[web] bad search_restaurants args: %v", err)
			return "I couldn't understand that search request."
		}
		return s.Engine.StartSearch(ctx, req).Message

	case "initiate_booking":
		var req engine.BookingRequest
		if err := decodeArgs(tc.Function.Arguments, &req); err != nil {
			log.Printf("[web] bad initiate_booking args: %v", err)
			return "I couldn't understand that booking request."
		}
		res, err := s.Engine.StartBooking(ctx, req)
		if err != nil {
			log.Printf("[web] initiate_booking: %v", err)
			return "Something went wrong starting that booking. Please try again."
		}
		return res.Message

	default:
		return fmt.Sprintf("Unknown tool: %s", tc.Function.Name)
	}
}

// decodeArgs accepts tool arguments either as a JSON object or as a
// string-wrapped JSON object, both of which the provider sends.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("arguments are neither object nor string")
	}
	return json.Unmarshal([]byte(s), v)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ev, err := vapi.ParseEvent(body)
	if err != nil {
		http.Error(w, "bad event payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.Engine.HandleCallEvent(r.Context(), ev); err != nil {
		log.Printf("[web] event %s for call %s failed: %v", ev.Type, ev.CallID, err)
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "received"})
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request) {
	all, err := s.Engine.ListBookings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []booking.Booking{}
	}
	writeJSON(w, all)
}

// Dashboard.

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	all, err := s.Engine.ListBookings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/bookings.html", tmplData{
		Title:    "Bookings",
		User:     uid,
		Bookings: all,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		id, err := s.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs, "templates/base.html", name)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[web] write response: %v", err)
	}
}

// Start serves h until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("[web] listening on %s", addr)
	return srv.ListenAndServe()
}

// Package server exposes the advisory chat service over HTTP and
// WebSocket. Each chat turn runs profile extraction, persists the
// updated profile, retrieves relevant documents, and generates a
// grounded response.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/internal/types"
	"github.com/xhad/advisor/pkg/catalog"
	"github.com/xhad/advisor/pkg/config"
	"github.com/xhad/advisor/pkg/llm"
	"github.com/xhad/advisor/pkg/market"
	"github.com/xhad/advisor/pkg/profile"
	"github.com/xhad/advisor/pkg/retrieval"
	"github.com/xhad/advisor/pkg/store"
)

// ChatEngine is the language-model surface the server needs. Satisfied
// by llm.ChatEngine and by stubs in tests.
type ChatEngine interface {
	Chat(ctx context.Context, query, docContext, profileSummary string) (string, error)
	ChatStream(ctx context.Context, query, docContext, profileSummary string) (<-chan string, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin filtering happens in the CORS middleware
	},
}

// Conversational openers get a canned welcome instead of a full
// extract-retrieve-generate turn.
var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|howdy|yo|sup|start|help)\b`)

const greetingResponse = "Hello! I'm your financial advisory assistant. " +
	"Tell me about your financial goals, how much risk you're comfortable with, " +
	"and your investment timeline, and I'll tailor my guidance to you."

type Config struct {
	Port           string
	AllowedOrigins []string
	Streaming      bool
	NewsLimit      int
	ApplyThreshold float64
	Extractor      profile.ExtractorConfig
}

type Server struct {
	config    Config
	chat      ChatEngine
	retriever *retrieval.Service
	profiles  types.ProfileStore
	market    *market.Client
}

func New(cfg Config, chat ChatEngine, retriever *retrieval.Service, profiles types.ProfileStore, marketClient *market.Client) *Server {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.ApplyThreshold == 0 {
		cfg.ApplyThreshold = profile.DefaultApplyThreshold
	}
	if cfg.Extractor.PreferencesCap == 0 {
		cfg.Extractor = profile.DefaultExtractorConfig()
	}
	if cfg.NewsLimit == 0 {
		cfg.NewsLimit = 3
	}

	return &Server{
		config:    cfg,
		chat:      chat,
		retriever: retriever,
		profiles:  profiles,
		market:    marketClient,
	}
}

type ChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Ticker  string `json:"ticker,omitempty"`
}

// ExtractionSummary reports what this turn's message contributed to the
// profile.
type ExtractionSummary struct {
	Updates           []models.ProfileUpdate `json:"updates"`
	FieldsUpdated     []string               `json:"fieldsUpdated"`
	AverageConfidence float64                `json:"averageConfidence"`
}

type ProfileSnapshot struct {
	Profile              models.ClientProfile `json:"profile"`
	CompletionPercentage int                  `json:"completionPercentage"`
	MissingFields        []string             `json:"missingFields"`
	Complete             bool                 `json:"complete"`
}

type ChatResponse struct {
	Response   string              `json:"response"`
	Sources    []models.ChatSource `json:"sources"`
	Extraction ExtractionSummary   `json:"extraction"`
	Profile    ProfileSnapshot     `json:"profile"`
	Greeting   bool                `json:"greeting,omitempty"`
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/profile/{userID}", s.handleGetProfile)
	r.Post("/api/profile/{userID}/merge", s.handleMergeProfile)
	r.Post("/api/profile/{userID}/reset", s.handleResetProfile)
	r.Get("/ws", s.handleWebSocket)

	return r
}

func (s *Server) ListenAndServe() error {
	log.Printf("advisor server listening on port %s", s.config.Port)
	return http.ListenAndServe(":"+s.config.Port, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	ctx := r.Context()

	current := s.loadProfile(ctx, req.UserID)

	if isGreeting(req.Message) {
		writeJSON(w, http.StatusOK, ChatResponse{
			Response:   greetingResponse,
			Sources:    []models.ChatSource{},
			Extraction: summarize(nil, s.config.ApplyThreshold),
			Profile:    snapshot(current),
			Greeting:   true,
		})
		return
	}

	updates := profile.ExtractUpdatesWithConfig(req.Message, current, s.config.Extractor)
	updated := profile.ApplyWithThreshold(current, updates, s.config.ApplyThreshold)
	if err := s.profiles.Set(ctx, req.UserID, updated); err != nil {
		log.Printf("failed to persist profile for %s: %v", req.UserID, err)
	}

	docs := s.retriever.RetrieveForProfile(ctx, req.Message, &updated, 0)
	docContext := retrieval.FormatAsContext(docs)
	if news := s.fetchNews(ctx, req.Ticker); news != "" {
		docContext += "\n\n" + news
	}

	response, err := s.chat.Chat(ctx, req.Message, docContext, s.profileSummary(updated))
	if err != nil {
		log.Printf("chat generation failed: %v", err)
		writeError(w, http.StatusBadGateway, "failed to generate response")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:   response,
		Sources:    retrieval.ToChatSources(docs),
		Extraction: summarize(updates, s.config.ApplyThreshold),
		Profile:    snapshot(updated),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	writeJSON(w, http.StatusOK, snapshot(s.loadProfile(r.Context(), userID)))
}

func (s *Server) handleMergeProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var incoming models.ClientProfile
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile body")
		return
	}

	merged, err := s.profiles.Merge(r.Context(), userID, &incoming)
	if err != nil {
		log.Printf("failed to merge profile for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to merge profile")
		return
	}

	writeJSON(w, http.StatusOK, snapshot(merged))
}

func (s *Server) handleResetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	empty := profile.Empty()
	if err := s.profiles.Set(r.Context(), userID, empty); err != nil {
		log.Printf("failed to reset profile for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to reset profile")
		return
	}

	writeJSON(w, http.StatusOK, snapshot(empty))
}

type wsMessage struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type wsChatData struct {
	UserID string `json:"userId"`
	Ticker string `json:"ticker,omitempty"`
}

type wsReply struct {
	Type    string      `json:"type"`
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("error reading message: %v", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.send(conn, wsReply{Type: "error", Content: "invalid message"})
			continue
		}

		// Messages are handled in order on this connection; profile
		// updates from one turn are visible to the next.
		s.handleChatMessage(r.Context(), conn, msg)
	}
}

func (s *Server) handleChatMessage(ctx context.Context, conn *websocket.Conn, msg wsMessage) {
	var data wsChatData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.send(conn, wsReply{Type: "error", Content: "invalid message data"})
			return
		}
	}
	if data.UserID == "" {
		data.UserID = "anonymous"
	}
	if strings.TrimSpace(msg.Content) == "" {
		s.send(conn, wsReply{Type: "error", Content: "empty message"})
		return
	}

	current := s.loadProfile(ctx, data.UserID)

	if isGreeting(msg.Content) {
		s.send(conn, wsReply{Type: "response", Content: greetingResponse})
		s.send(conn, wsReply{Type: "profile", Data: snapshot(current)})
		s.send(conn, wsReply{Type: "done"})
		return
	}

	updates := profile.ExtractUpdatesWithConfig(msg.Content, current, s.config.Extractor)
	updated := profile.ApplyWithThreshold(current, updates, s.config.ApplyThreshold)
	if err := s.profiles.Set(ctx, data.UserID, updated); err != nil {
		log.Printf("failed to persist profile for %s: %v", data.UserID, err)
	}

	docs := s.retriever.RetrieveForProfile(ctx, msg.Content, &updated, 0)
	docContext := retrieval.FormatAsContext(docs)
	if news := s.fetchNews(ctx, data.Ticker); news != "" {
		docContext += "\n\n" + news
	}
	summary := s.profileSummary(updated)

	if s.config.Streaming {
		stream, err := s.chat.ChatStream(ctx, msg.Content, docContext, summary)
		if err != nil {
			s.send(conn, wsReply{Type: "error", Content: err.Error()})
			return
		}
		for chunk := range stream {
			if strings.HasPrefix(chunk, "Error:") {
				s.send(conn, wsReply{Type: "error", Content: chunk})
				return
			}
			s.send(conn, wsReply{Type: "stream", Content: chunk})
		}
	} else {
		response, err := s.chat.Chat(ctx, msg.Content, docContext, summary)
		if err != nil {
			s.send(conn, wsReply{Type: "error", Content: err.Error()})
			return
		}
		s.send(conn, wsReply{Type: "response", Content: response})
	}

	s.send(conn, wsReply{Type: "sources", Data: retrieval.ToChatSources(docs)})
	s.send(conn, wsReply{Type: "extraction", Data: summarize(updates, s.config.ApplyThreshold)})
	s.send(conn, wsReply{Type: "profile", Data: snapshot(updated)})
	s.send(conn, wsReply{Type: "done"})
}

func (s *Server) send(conn *websocket.Conn, reply wsReply) {
	if err := conn.WriteJSON(reply); err != nil {
		log.Printf("error sending message: %v", err)
	}
}

func (s *Server) loadProfile(ctx context.Context, userID string) models.ClientProfile {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		log.Printf("failed to load profile for %s: %v", userID, err)
	}
	if p == nil {
		return profile.Empty()
	}
	return *p
}

// profileSummary is the profile context handed to the LLM: known facts
// plus what still needs to be asked.
func (s *Server) profileSummary(p models.ClientProfile) string {
	block := retrieval.ProfileBlock(&p)
	summary := profile.Summarize(p)
	if block == "" {
		return summary
	}
	return block + "\n\n" + summary
}

func (s *Server) fetchNews(ctx context.Context, ticker string) string {
	if s.market == nil || ticker == "" {
		return ""
	}
	articles, err := s.market.News(ctx, ticker, s.config.NewsLimit)
	if err != nil {
		log.Printf("market news unavailable: %v", err)
		return ""
	}
	if len(articles) == 0 {
		return ""
	}
	return market.FormatNews(articles)
}

func isGreeting(message string) bool {
	return greetingPattern.MatchString(message) && len(strings.Fields(message)) <= 3
}

func summarize(updates []models.ProfileUpdate, threshold float64) ExtractionSummary {
	summary := ExtractionSummary{
		Updates:       []models.ProfileUpdate{},
		FieldsUpdated: []string{},
	}
	if len(updates) == 0 {
		return summary
	}

	var total float64
	for _, u := range updates {
		summary.Updates = append(summary.Updates, u)
		total += u.Confidence
		if u.Confidence > threshold {
			summary.FieldsUpdated = append(summary.FieldsUpdated, u.Field)
		}
	}
	summary.AverageConfidence = total / float64(len(updates))
	return summary
}

func snapshot(p models.ClientProfile) ProfileSnapshot {
	return ProfileSnapshot{
		Profile:              p,
		CompletionPercentage: profile.CompletionPercentage(p),
		MissingFields:        profile.MissingFields(p),
		Complete:             profile.IsComplete(p),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Run wires the full service from configuration and blocks serving HTTP.
func Run(cfg *config.Config) error {
	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	var profiles types.ProfileStore
	if cfg.Redis.Addr != "" {
		redisStore, err := store.NewRedisStore(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.KeyPrefix)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		profiles = redisStore
	} else {
		profiles = store.NewMemoryStore()
	}

	var remote types.Retriever
	if cfg.Vectorize.AccessToken != "" && cfg.Vectorize.PipelineID != "" {
		remote = retrieval.NewVectorizeClient(retrieval.VectorizeConfig{
			BaseURL:        cfg.Vectorize.BaseURL,
			AccessToken:    cfg.Vectorize.AccessToken,
			OrganizationID: cfg.Vectorize.OrganizationID,
			PipelineID:     cfg.Vectorize.PipelineID,
			Timeout:        time.Duration(cfg.Vectorize.TimeoutSeconds) * time.Second,
		})
	}

	var vector types.Retriever
	if cfg.Database.URL != "" {
		embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			BaseURL: cfg.LLM.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize embedder: %w", err)
		}
		vectorStore, err := store.NewVectorStore(store.VectorStoreConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			VectorDim:  cfg.Database.VectorDim,
			BatchSize:  cfg.Database.BatchSize,
			Embedder:   embedder,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %w", err)
		}
		defer vectorStore.Close()
		vector = vectorStore
	}

	retriever := retrieval.NewService(retrieval.ServiceConfig{
		Remote:    remote,
		Vector:    vector,
		Source:    catalog.New(),
		Limit:     cfg.Retrieval.Limit,
		Threshold: cfg.Retrieval.Threshold,
	})

	var marketClient *market.Client
	if cfg.Market.APIKey != "" {
		marketClient = market.NewClient(market.ClientConfig{
			BaseURL: cfg.Market.BaseURL,
			APIKey:  cfg.Market.APIKey,
		})
	}

	srv := New(Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Streaming:      cfg.UI.Streaming,
		NewsLimit:      cfg.Market.NewsLimit,
		ApplyThreshold: cfg.Profile.ApplyThreshold,
		Extractor: profile.ExtractorConfig{
			PreferencesCap:  cfg.Profile.PreferencesCap,
			ExpectationsCap: cfg.Profile.ExpectationsCap,
		},
	}, chatEngine, retriever, profiles, marketClient)

	return srv.ListenAndServe()
}

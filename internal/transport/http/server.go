package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/chatflow-oss/chatflow/internal/logger"
	"github.com/chatflow-oss/chatflow/internal/service"
	"github.com/chatflow-oss/chatflow/internal/session"
)

type ServerConfig struct {
	Address string
}

// Server is the REST facade the web client talks to.
type Server struct {
	httpServer *http.Server
	handler    *Handler
	config     ServerConfig
	log        zerolog.Logger
}

func NewServer(
	chatSvc *service.ChatService,
	groupSvc *service.GroupService,
	userSvc *service.UserService,
	sessions *session.Manager,
	config ServerConfig,
) *Server {
	handler := NewHandler(chatSvc, groupSvc, userSvc, sessions)

	router := mux.NewRouter()
	router.Use(CORS)
	router.Use(RequestLogging(logger.Module("http")))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", handler.Login).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/logout", handler.Logout).Methods(http.MethodPost, http.MethodOptions)

	authed := api.NewRoute().Subrouter()
	authed.Use(RequireUser(sessions))

	authed.HandleFunc("/me", handler.Me).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/me/status", handler.SetStatus).Methods(http.MethodPut, http.MethodOptions)
	authed.HandleFunc("/users", handler.ListUsers).Methods(http.MethodGet, http.MethodOptions)

	authed.HandleFunc("/conversations", handler.ListConversations).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}", handler.GetConversation).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}", handler.RenameGroup).Methods(http.MethodPatch, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}/select", handler.SelectConversation).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}/messages", handler.ListMessages).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}/messages", handler.SendMessage).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}/participants", handler.AddParticipant).Methods(http.MethodPost, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}/participants/{userID}", handler.RemoveParticipant).Methods(http.MethodDelete, http.MethodOptions)
	authed.HandleFunc("/conversations/{id}/participants/{userID}/admin", handler.SetParticipantAdmin).Methods(http.MethodPut, http.MethodOptions)

	authed.HandleFunc("/messages/search", handler.SearchMessages).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/messages/{id}", handler.EditMessage).Methods(http.MethodPatch, http.MethodOptions)
	authed.HandleFunc("/messages/{id}", handler.DeleteMessage).Methods(http.MethodDelete, http.MethodOptions)

	authed.HandleFunc("/notifications/counts", handler.Counts).Methods(http.MethodGet, http.MethodOptions)

	return &Server{
		httpServer: &http.Server{
			Addr:         config.Address,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		handler: handler,
		config:  config,
		log:     logger.Module("http"),
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("address", s.config.Address).Msg("HTTP API listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}

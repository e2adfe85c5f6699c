package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chatflow-oss/chatflow/internal/service"
)

type ServerConfig struct {
	Address string
}

// Server exposes the messaging core as MCP tools over SSE. Tool calls act
// as the demo account, same as the interactive CLI.
type Server struct {
	mcpServer  *server.MCPServer
	sseServer  *server.SSEServer
	httpServer *http.Server
	chatSvc    *service.ChatService
	userSvc    *service.UserService
	actorID    string
	config     ServerConfig
}

func NewServer(
	chatSvc *service.ChatService,
	userSvc *service.UserService,
	actorID string,
	config ServerConfig,
) *Server {
	s := &Server{
		chatSvc: chatSvc,
		userSvc: userSvc,
		actorID: actorID,
		config:  config,
	}

	s.mcpServer = server.NewMCPServer(
		"chatflow",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	s.sseServer = server.NewSSEServer(s.mcpServer,
		server.WithKeepAliveInterval(30*time.Second),
	)

	return s
}

func (s *Server) registerTools() {
	// List conversations tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_list_conversations",
			mcp.WithDescription("List conversations in sidebar order, with unread counts and last-message previews"),
			mcp.WithString("filter",
				mcp.Description("Optional filter matched against conversation names and last-message previews"),
			),
		),
		s.handleListConversations,
	)

	// Get messages tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_get_messages",
			mcp.WithDescription("Get the message thread of a conversation, grouped by calendar date"),
			mcp.WithString("conversation_id",
				mcp.Required(),
				mcp.Description("ID of the conversation (e.g. 'conv-1')"),
			),
		),
		s.handleGetMessages,
	)

	// Send message tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_send_message",
			mcp.WithDescription("Send a text message to a conversation. Delivery and read receipts arrive asynchronously."),
			mcp.WithString("conversation_id",
				mcp.Required(),
				mcp.Description("ID of the conversation to send to"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Message text to send"),
			),
		),
		s.handleSendMessage,
	)

	// Edit message tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_edit_message",
			mcp.WithDescription("Edit a text message you sent within the last 15 minutes"),
			mcp.WithString("message_id",
				mcp.Required(),
				mcp.Description("ID of the message to edit"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Replacement text"),
			),
		),
		s.handleEditMessage,
	)

	// Delete message tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_delete_message",
			mcp.WithDescription("Delete a message you sent within the last 24 hours"),
			mcp.WithString("message_id",
				mcp.Required(),
				mcp.Description("ID of the message to delete"),
			),
		),
		s.handleDeleteMessage,
	)

	// Mark read tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_mark_read",
			mcp.WithDescription("Open a conversation, clearing its unread count"),
			mcp.WithString("conversation_id",
				mcp.Required(),
				mcp.Description("ID of the conversation to open"),
			),
		),
		s.handleMarkRead,
	)

	// Search messages tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_search_messages",
			mcp.WithDescription("Search messages across all conversations by text content"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search query text"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum results to return (default 20, max 100)"),
			),
		),
		s.handleSearchMessages,
	)

	// Unread counts tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_unread_counts",
			mcp.WithDescription("Get aggregated unread notification counts"),
		),
		s.handleUnreadCounts,
	)

	// Presence tool
	s.mcpServer.AddTool(
		mcp.NewTool("chatflow_list_users",
			mcp.WithDescription("List all users with their presence status"),
		),
		s.handleListUsers,
	)
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.Handle("/sse", s.sseServer.SSEHandler())
	mux.Handle("/message", s.sseServer.MessageHandler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: mux,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

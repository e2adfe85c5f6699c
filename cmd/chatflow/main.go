package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chatflow-oss/chatflow/internal/cli"
	"github.com/chatflow-oss/chatflow/internal/config"
	"github.com/chatflow-oss/chatflow/internal/delivery"
	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/logger"
	"github.com/chatflow-oss/chatflow/internal/repository"
	"github.com/chatflow-oss/chatflow/internal/seed"
	"github.com/chatflow-oss/chatflow/internal/service"
	"github.com/chatflow-oss/chatflow/internal/session"
	httpTransport "github.com/chatflow-oss/chatflow/internal/transport/http"
	mcpTransport "github.com/chatflow-oss/chatflow/internal/transport/mcp"
)

// RunMode defines how the application runs
type RunMode string

const (
	RunModeServer      RunMode = "server"
	RunModeInteractive RunMode = "interactive"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	db, err := repository.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	eventBus := domain.NewEventBus()
	clock := delivery.SystemClock()

	chatSvc := service.NewChatService(userRepo, convRepo, msgRepo, eventBus, clock)
	userSvc := service.NewUserService(userRepo, eventBus, clock)
	groupSvc := service.NewGroupService(convRepo, userRepo)

	ctx := context.Background()
	if err := seed.Load(ctx, userRepo, convRepo, msgRepo, clock); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	simulator := delivery.NewSimulator(chatSvc, eventBus, clock, cfg.DeliverDelay, cfg.ReadDelay)
	simulator.Start()
	defer simulator.Stop()

	switch RunMode(cfg.Mode) {
	case RunModeInteractive:
		runInteractiveMode(ctx, chatSvc, userSvc, eventBus)
	default:
		runServerMode(cfg, chatSvc, groupSvc, userSvc, eventBus)
	}
}

func runServerMode(
	cfg *config.Config,
	chatSvc *service.ChatService,
	groupSvc *service.GroupService,
	userSvc *service.UserService,
	eventBus domain.EventBus,
) {
	log.Printf("ChatFlow starting...")
	log.Printf("HTTP address: %s", cfg.HTTPAddress)
	log.Printf("MCP address: %s", cfg.MCPAddress)

	sessions := session.NewManager(cfg.SessionKey, userSvc)

	httpServer := httpTransport.NewServer(
		chatSvc,
		groupSvc,
		userSvc,
		sessions,
		httpTransport.ServerConfig{
			Address: cfg.HTTPAddress,
		},
	)

	mcpServer := mcpTransport.NewServer(
		chatSvc,
		userSvc,
		seed.CurrentUserID,
		mcpTransport.ServerConfig{
			Address: cfg.MCPAddress,
		},
	)

	errCh := make(chan error, 2)

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	go func() {
		log.Printf("Starting MCP SSE server on %s", cfg.MCPAddress)
		if err := mcpServer.Start(); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Print ready message for subprocess coordination
	fmt.Println("ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Printf("HTTP server stop error: %v", err)
	}

	log.Printf("Stopping MCP server...")
	if err := mcpServer.Stop(shutdownCtx); err != nil {
		log.Printf("MCP server stop error: %v", err)
	}

	log.Printf("Shutdown complete")
}

func runInteractiveMode(
	ctx context.Context,
	chatSvc *service.ChatService,
	userSvc *service.UserService,
	eventBus domain.EventBus,
) {
	handler := cli.NewCommandHandler(chatSvc, userSvc, eventBus, seed.CurrentUserID)
	interactiveCLI := cli.NewInteractiveCLI(handler)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	if err := interactiveCLI.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("CLI error: %v", err)
	}
}

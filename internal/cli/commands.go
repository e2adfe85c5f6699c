package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/service"
)

// CommandHandler handles CLI commands, acting as a fixed local user
type CommandHandler struct {
	chatSvc *service.ChatService
	userSvc *service.UserService
	bus     domain.EventBus
	actorID string
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(chatSvc *service.ChatService, userSvc *service.UserService, bus domain.EventBus, actorID string) *CommandHandler {
	return &CommandHandler{
		chatSvc: chatSvc,
		userSvc: userSvc,
		bus:     bus,
		actorID: actorID,
	}
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a command string (e.g., "/send conv-1 Hello there")
func ParseCommand(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	if !strings.HasPrefix(input, "/") {
		return nil, fmt.Errorf("commands must start with /")
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	return &Command{Name: name, Args: args}, nil
}

// Execute executes a command and returns the result
func (h *CommandHandler) Execute(ctx context.Context, cmd *Command) (interface{}, error) {
	switch cmd.Name {
	case "help", "h":
		return h.cmdHelp()
	case "conversations", "ls":
		return h.cmdConversations(ctx, cmd.Args)
	case "open", "o":
		return h.cmdOpen(ctx, cmd.Args)
	case "messages", "msg":
		return h.cmdMessages(ctx, cmd.Args)
	case "send":
		return h.cmdSend(ctx, cmd.Args)
	case "edit":
		return h.cmdEdit(ctx, cmd.Args)
	case "delete", "rm":
		return h.cmdDelete(ctx, cmd.Args)
	case "search":
		return h.cmdSearch(ctx, cmd.Args)
	case "counts":
		return h.cmdCounts(ctx)
	case "users":
		return h.cmdUsers(ctx)
	case "status", "presence":
		return h.cmdPresence(ctx, cmd.Args)
	case "quit", "exit", "q":
		return map[string]bool{"quit": true}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s. Type /help for available commands", cmd.Name)
	}
}

func (h *CommandHandler) cmdHelp() (interface{}, error) {
	help := `Available commands:

Conversations:
  /conversations, /ls [filter]   List conversations (optionally filtered)
  /open, /o <conv_id>            Open a conversation (clears its unread count)
  /messages, /msg <conv_id>      Show the thread, grouped by date

Messages:
  /send <conv_id> <text>         Send a text message
  /edit <msg_id> <text>          Edit one of your messages (15 minute window)
  /delete, /rm <msg_id>          Delete one of your messages (24 hour window)
  /search <query> [limit]        Search messages across conversations

Status:
  /counts                        Show unread notification counts
  /users                         List users and their presence
  /status <presence>             Set your presence (online, away, busy, offline)

Other:
  /help, /h                      Show this help
  /quit, /exit, /q               Exit the CLI`

	return map[string]string{"help": help}, nil
}

func (h *CommandHandler) cmdConversations(ctx context.Context, args []string) (interface{}, error) {
	filter := strings.Join(args, " ")

	conversations, err := h.chatSvc.ListConversations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	result := make([]ConversationInfo, len(conversations))
	for i, conv := range conversations {
		info := ConversationInfo{
			ID:          conv.ID,
			Name:        conv.Name,
			Type:        string(conv.Type),
			UnreadCount: conv.UnreadCount,
		}
		if conv.LastMessage != nil {
			info.LastPreview = conv.LastMessage.Preview
			info.LastTime = conv.LastMessage.Timestamp
		}
		result[i] = info
	}

	return map[string]interface{}{"conversations": result, "count": len(result)}, nil
}

func (h *CommandHandler) cmdOpen(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /open <conv_id>")
	}

	conv, err := h.chatSvc.SelectConversation(ctx, args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}

	return map[string]string{"message": fmt.Sprintf("Opened %s (%s)", conv.Name, conv.ID)}, nil
}

func (h *CommandHandler) cmdMessages(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /messages <conv_id>")
	}

	groups, err := h.chatSvc.Thread(ctx, args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	return map[string]interface{}{"groups": groups, "conversation_id": args[0]}, nil
}

func (h *CommandHandler) cmdSend(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: /send <conv_id> <text>")
	}

	text := strings.Join(args[1:], " ")

	msg, err := h.chatSvc.SendMessage(ctx, h.actorID, args[0], domain.Draft{
		Type: domain.MessageTypeText,
		Text: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return h.messageInfo(msg), nil
}

func (h *CommandHandler) cmdEdit(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("usage: /edit <msg_id> <text>")
	}

	text := strings.Join(args[1:], " ")

	msg, err := h.chatSvc.EditMessage(ctx, h.actorID, args[0], text)
	if err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}

	return map[string]string{"message": fmt.Sprintf("Message %s edited", msg.ID)}, nil
}

func (h *CommandHandler) cmdDelete(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /delete <msg_id>")
	}

	if err := h.chatSvc.DeleteMessage(ctx, h.actorID, args[0]); err != nil {
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}

	return map[string]string{"message": fmt.Sprintf("Message %s deleted", args[0])}, nil
}

func (h *CommandHandler) cmdSearch(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /search <query> [limit]")
	}

	query := args[0]
	limit := 20

	// Check if last arg is a number (limit)
	if len(args) > 1 {
		if l, err := strconv.Atoi(args[len(args)-1]); err == nil && l > 0 {
			limit = l
			query = strings.Join(args[:len(args)-1], " ")
		} else {
			query = strings.Join(args, " ")
		}
	}

	messages, err := h.chatSvc.SearchMessages(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := make([]MessageInfo, len(messages))
	for i, msg := range messages {
		result[i] = h.messageInfo(msg)
	}

	return map[string]interface{}{
		"query":    query,
		"messages": result,
		"count":    len(result),
	}, nil
}

func (h *CommandHandler) cmdCounts(ctx context.Context) (interface{}, error) {
	counts, err := h.chatSvc.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get counts: %w", err)
	}

	return CountsInfo{
		Messages: counts.Messages,
		Groups:   counts.Groups,
		Total:    counts.Total,
	}, nil
}

func (h *CommandHandler) cmdUsers(ctx context.Context) (interface{}, error) {
	users, err := h.userSvc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	now := time.Now()
	result := make([]UserInfo, len(users))
	for i, u := range users {
		result[i] = UserInfo{
			ID:       u.ID,
			Name:     u.Name,
			Presence: domain.LastSeenLabel(u.Status, u.LastSeen, now),
			IsMe:     u.ID == h.actorID,
		}
	}

	return map[string]interface{}{"users": result, "count": len(result)}, nil
}

func (h *CommandHandler) cmdPresence(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /status <online|away|busy|offline>")
	}

	status := domain.Status(args[0])
	if err := h.userSvc.SetPresence(ctx, h.actorID, status); err != nil {
		return nil, fmt.Errorf("failed to set presence: %w", err)
	}

	return map[string]string{"message": fmt.Sprintf("Presence set to %s", status)}, nil
}

func (h *CommandHandler) messageInfo(msg *domain.Message) MessageInfo {
	return MessageInfo{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.Sender.ID,
		SenderName:     msg.Sender.Name,
		Type:           string(msg.Type),
		Text:           msg.Text,
		Timestamp:      msg.Timestamp,
		Status:         string(msg.Status),
		Edited:         msg.Edited,
		IsFromMe:       msg.Sender.ID == h.actorID,
	}
}

// SubscribeEvents subscribes to chat events for live display
func (h *CommandHandler) SubscribeEvents(eventTypes []domain.EventType) <-chan Event {
	if len(eventTypes) == 0 {
		eventTypes = []domain.EventType{
			domain.EventTypeMessageReceived,
			domain.EventTypeMessageStatus,
		}
	}

	domainChan := h.bus.Subscribe(eventTypes)

	resultChan := make(chan Event)

	go func() {
		defer close(resultChan)
		for evt := range domainChan {
			var eventType string
			var data interface{}

			switch e := evt.(type) {
			case domain.MessageReceivedEvent:
				eventType = "message_received"
				data = h.messageInfo(e.Message)
			case domain.MessageStatusEvent:
				eventType = "message_status"
				data = StatusChange{
					MessageID:      e.MessageID,
					ConversationID: e.ConversationID,
					Status:         string(e.Status),
				}
			case domain.PresenceUpdatedEvent:
				eventType = "presence_updated"
				data = map[string]string{
					"user_id": e.UserID,
					"status":  string(e.Status),
				}
			default:
				continue
			}

			resultChan <- Event{
				Type:      eventType,
				Timestamp: time.Now(),
				Data:      data,
			}
		}
	}()

	return resultChan
}

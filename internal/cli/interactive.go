package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

// InteractiveCLI handles the interactive command-line interface
type InteractiveCLI struct {
	handler *CommandHandler
	reader  *bufio.Reader
	writer  io.Writer
}

// NewInteractiveCLI creates a new interactive CLI
func NewInteractiveCLI(handler *CommandHandler) *InteractiveCLI {
	return &InteractiveCLI{
		handler: handler,
		reader:  bufio.NewReader(os.Stdin),
		writer:  os.Stdout,
	}
}

// Run starts the interactive CLI loop
func (cli *InteractiveCLI) Run(ctx context.Context) error {
	cli.printWelcome()

	// Subscribe to events in background
	eventChan := cli.handler.SubscribeEvents([]domain.EventType{
		domain.EventTypeMessageReceived,
		domain.EventTypeMessageStatus,
	})

	go cli.handleEvents(eventChan)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			cli.print("\n> ")
			line, err := cli.reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			if err := cli.processCommand(ctx, line); err != nil {
				if err.Error() == "quit" {
					cli.println("Goodbye!")
					return nil
				}
				cli.printf("Error: %s\n", err)
			}
		}
	}
}

func (cli *InteractiveCLI) printWelcome() {
	cli.println("===========================================")
	cli.println("  ChatFlow CLI")
	cli.println("===========================================")
	cli.println("Type /help for available commands")
	cli.println("")
}

func (cli *InteractiveCLI) processCommand(ctx context.Context, input string) error {
	cmd, err := ParseCommand(input)
	if err != nil {
		return err
	}

	result, err := cli.handler.Execute(ctx, cmd)
	if err != nil {
		return err
	}

	// Check for quit command
	if m, ok := result.(map[string]bool); ok && m["quit"] {
		return fmt.Errorf("quit")
	}

	// Format and display result
	cli.displayResult(cmd.Name, result)
	return nil
}

func (cli *InteractiveCLI) displayResult(cmdName string, result interface{}) {
	switch cmdName {
	case "help", "h":
		if m, ok := result.(map[string]string); ok {
			cli.println(m["help"])
		}

	case "conversations", "ls":
		if m, ok := result.(map[string]interface{}); ok {
			conversations, _ := m["conversations"].([]ConversationInfo)
			cli.printf("Found %d conversation(s):\n\n", len(conversations))
			for i, conv := range conversations {
				unread := ""
				if conv.UnreadCount > 0 {
					unread = fmt.Sprintf(" [%d unread]", conv.UnreadCount)
				}
				cli.printf("%d. %s (%s)%s\n", i+1, conv.Name, conv.Type, unread)
				cli.printf("   ID: %s\n", conv.ID)
				if conv.LastPreview != "" {
					preview := conv.LastPreview
					if len(preview) > 50 {
						preview = preview[:50] + "..."
					}
					cli.printf("   Last: %s\n", preview)
				}
			}
		}

	case "messages", "msg":
		if m, ok := result.(map[string]interface{}); ok {
			groups, _ := m["groups"].([]domain.DateGroup)
			for _, group := range groups {
				cli.printf("=== %s ===\n", group.Label)
				for _, msg := range group.Messages {
					info := cli.handler.messageInfo(msg)
					sender := info.SenderName
					if info.IsFromMe {
						sender = "Me"
					}
					cli.printf("[%s] %s (%s):\n", msg.Timestamp.Format("15:04"), sender, info.Status)
					cli.printf("  %s\n", msg.Preview())
					if info.Edited {
						cli.println("  (edited)")
					}
					cli.printf("  ID: %s\n\n", info.ID)
				}
			}
		}

	case "send":
		if msg, ok := result.(MessageInfo); ok {
			cli.printf("Message sent!\n")
			cli.printf("  ID: %s\n", msg.ID)
			cli.printf("  Time: %s\n", msg.Timestamp.Format("2006-01-02 15:04:05"))
			cli.printf("  Status: %s\n", msg.Status)
		}

	case "search":
		if m, ok := result.(map[string]interface{}); ok {
			query, _ := m["query"].(string)
			messages, _ := m["messages"].([]MessageInfo)
			cli.printf("Search results for '%s' (%d found):\n\n", query, len(messages))
			for i, msg := range messages {
				sender := msg.SenderName
				if msg.IsFromMe {
					sender = "Me"
				}
				cli.printf("%d. [%s] %s:\n", i+1, msg.Timestamp.Format("2006-01-02 15:04"), sender)
				text := msg.Text
				if len(text) > 80 {
					text = text[:80] + "..."
				}
				cli.printf("   %s\n", text)
				cli.printf("   Conversation: %s | ID: %s\n\n", msg.ConversationID, msg.ID)
			}
		}

	case "counts":
		if c, ok := result.(CountsInfo); ok {
			cli.printf("Unread messages: %d\n", c.Messages)
			cli.printf("Groups with unread: %d\n", c.Groups)
			cli.printf("Total: %d\n", c.Total)
		}

	case "users":
		if m, ok := result.(map[string]interface{}); ok {
			users, _ := m["users"].([]UserInfo)
			cli.printf("%d user(s):\n\n", len(users))
			for i, u := range users {
				marker := ""
				if u.IsMe {
					marker = " (me)"
				}
				cli.printf("%d. %s%s — %s\n", i+1, u.Name, marker, u.Presence)
				cli.printf("   ID: %s\n", u.ID)
			}
		}

	default:
		// Generic JSON output for other commands
		if m, ok := result.(map[string]string); ok {
			if msg, exists := m["message"]; exists {
				cli.println(msg)
				return
			}
		}
		// Pretty print JSON
		data, _ := json.MarshalIndent(result, "", "  ")
		cli.println(string(data))
	}
}

func (cli *InteractiveCLI) handleEvents(eventChan <-chan Event) {
	for event := range eventChan {
		switch event.Type {
		case "message_received":
			if msg, ok := event.Data.(MessageInfo); ok {
				cli.printf("\n[New Message] From %s in %s:\n", msg.SenderName, msg.ConversationID)
				cli.printf("  %s\n", msg.Text)
				cli.print("> ")
			}
		case "message_status":
			if change, ok := event.Data.(StatusChange); ok {
				cli.printf("\n[Receipt] Message %s is now %s\n", change.MessageID, change.Status)
				cli.print("> ")
			}
		}
	}
}

func (cli *InteractiveCLI) print(s string) {
	fmt.Fprint(cli.writer, s)
}

func (cli *InteractiveCLI) println(s string) {
	fmt.Fprintln(cli.writer, s)
}

func (cli *InteractiveCLI) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.writer, format, args...)
}

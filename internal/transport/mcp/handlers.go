package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

func (s *Server) handleListConversations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := request.GetString("filter", "")

	conversations, err := s.chatSvc.ListConversations(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list conversations: %v", err)), nil
	}

	if len(conversations) == 0 {
		return mcp.NewToolResultText("No conversations found."), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d conversation(s):\n\n", len(conversations)))

	for i, conv := range conversations {
		convType := "Direct"
		if conv.IsGroup() {
			convType = "Group"
		}

		result.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, conv.Name, convType))
		result.WriteString(fmt.Sprintf("   ID: %s\n", conv.ID))

		if conv.UnreadCount > 0 {
			result.WriteString(fmt.Sprintf("   Unread: %d message(s)\n", conv.UnreadCount))
		}

		if conv.LastMessage != nil {
			result.WriteString(fmt.Sprintf("   Last: %s: %s\n", conv.LastMessage.SenderName, conv.LastMessage.Preview))
			result.WriteString(fmt.Sprintf("   Time: %s\n", conv.LastMessage.Timestamp.Format("2006-01-02 15:04")))
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleGetMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID := request.GetString("conversation_id", "")
	if conversationID == "" {
		return mcp.NewToolResultError("conversation_id is required"), nil
	}

	groups, err := s.chatSvc.Thread(ctx, conversationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get messages: %v", err)), nil
	}

	if len(groups) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages in conversation %s", conversationID)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Messages in %s:\n\n", conversationID))

	for _, group := range groups {
		result.WriteString(fmt.Sprintf("=== %s ===\n", group.Label))
		for _, msg := range group.Messages {
			sender := msg.Sender.Name
			if msg.Sender.ID == s.actorID {
				sender = "Me"
			}

			result.WriteString(fmt.Sprintf("[%s] %s (%s):\n", msg.Timestamp.Format("15:04"), sender, msg.Status))

			switch msg.Type {
			case domain.MessageTypeImage:
				result.WriteString("  📷 Photo\n")
			case domain.MessageTypeFile:
				if msg.File != nil {
					result.WriteString(fmt.Sprintf("  📎 %s (%s)\n", msg.File.Name, domain.FormatFileSize(msg.File.Size)))
				} else {
					result.WriteString("  📎 File\n")
				}
			default:
				result.WriteString(fmt.Sprintf("  %s\n", msg.Text))
			}

			if msg.Edited {
				result.WriteString("  (edited)\n")
			}
			result.WriteString(fmt.Sprintf("  ID: %s\n\n", msg.ID))
		}
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID := request.GetString("conversation_id", "")
	if conversationID == "" {
		return mcp.NewToolResultError("conversation_id is required"), nil
	}

	text := request.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	msg, err := s.chatSvc.SendMessage(ctx, s.actorID, conversationID, domain.Draft{
		Type: domain.MessageTypeText,
		Text: text,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent!\nID: %s\nTimestamp: %s\nTo: %s",
		msg.ID, msg.Timestamp.Format("2006-01-02 15:04:05"), conversationID)), nil
}

func (s *Server) handleEditMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messageID := request.GetString("message_id", "")
	if messageID == "" {
		return mcp.NewToolResultError("message_id is required"), nil
	}

	text := request.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	msg, err := s.chatSvc.EditMessage(ctx, s.actorID, messageID, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to edit message: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message %s edited.\nNew text: %s", msg.ID, msg.Text)), nil
}

func (s *Server) handleDeleteMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messageID := request.GetString("message_id", "")
	if messageID == "" {
		return mcp.NewToolResultError("message_id is required"), nil
	}

	if err := s.chatSvc.DeleteMessage(ctx, s.actorID, messageID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete message: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message %s deleted.", messageID)), nil
}

func (s *Server) handleMarkRead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID := request.GetString("conversation_id", "")
	if conversationID == "" {
		return mcp.NewToolResultError("conversation_id is required"), nil
	}

	conv, err := s.chatSvc.SelectConversation(ctx, conversationID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to open conversation: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Opened %s (%s). Unread count is now %d.",
		conv.Name, conv.ID, conv.UnreadCount)), nil
}

func (s *Server) handleSearchMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	limit := request.GetInt("limit", 20)
	if limit > 100 {
		limit = 100
	}
	if limit <= 0 {
		limit = 20
	}

	messages, err := s.chatSvc.SearchMessages(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages found matching '%s'", query)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Search results for '%s' (%d found):\n\n", query, len(messages)))

	for i, msg := range messages {
		sender := msg.Sender.Name
		if msg.Sender.ID == s.actorID {
			sender = "Me"
		}

		result.WriteString(fmt.Sprintf("%d. [%s] %s:\n", i+1, msg.Timestamp.Format("2006-01-02 15:04"), sender))
		result.WriteString(fmt.Sprintf("   Conversation: %s\n", msg.ConversationID))

		text := msg.Text
		if len(text) > 100 {
			text = text[:100] + "..."
		}
		result.WriteString(fmt.Sprintf("   %s\n", text))
		result.WriteString(fmt.Sprintf("   ID: %s\n\n", msg.ID))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleUnreadCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.chatSvc.Counts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get counts: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Unread messages: %d\nGroups with unread: %d\nTotal: %d",
		counts.Messages, counts.Groups, counts.Total)), nil
}

func (s *Server) handleListUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.userSvc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list users: %v", err)), nil
	}

	now := time.Now()
	var result strings.Builder
	result.WriteString(fmt.Sprintf("%d user(s):\n\n", len(users)))

	for i, u := range users {
		marker := ""
		if u.ID == s.actorID {
			marker = " (me)"
		}
		result.WriteString(fmt.Sprintf("%d. %s%s — %s\n", i+1, u.Name, marker,
			domain.LastSeenLabel(u.Status, u.LastSeen, now)))
		result.WriteString(fmt.Sprintf("   ID: %s\n\n", u.ID))
	}

	return mcp.NewToolResultText(result.String()), nil
}

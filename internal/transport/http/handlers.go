package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/service"
	"github.com/chatflow-oss/chatflow/internal/session"
)

type Handler struct {
	chatSvc  *service.ChatService
	groupSvc *service.GroupService
	userSvc  *service.UserService
	sessions *session.Manager
}

func NewHandler(
	chatSvc *service.ChatService,
	groupSvc *service.GroupService,
	userSvc *service.UserService,
	sessions *session.Manager,
) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		groupSvc: groupSvc,
		userSvc:  userSvc,
		sessions: sessions,
	}
}

// --- views ---

type userView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
	LastSeen    string `json:"lastSeen"`
	Role        string `json:"role"`
}

func newUserView(u domain.User, now time.Time) userView {
	return userView{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Avatar:      u.Avatar,
		Status:      string(u.Status),
		StatusLabel: domain.StatusLabel(u.Status),
		LastSeen:    domain.LastSeenLabel(u.Status, u.LastSeen, now),
		Role:        string(u.Role),
	}
}

type summaryView struct {
	MessageID  string    `json:"messageId"`
	Preview    string    `json:"preview"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
}

type conversationView struct {
	ID           string       `json:"id"`
	Type         string       `json:"type"`
	Name         string       `json:"name"`
	Avatar       string       `json:"avatar,omitempty"`
	Participants []userView   `json:"participants"`
	AdminIDs     []string     `json:"adminIds,omitempty"`
	LastMessage  *summaryView `json:"lastMessage,omitempty"`
	UnreadCount  int          `json:"unreadCount"`
}

func newConversationView(c *domain.Conversation, now time.Time) conversationView {
	view := conversationView{
		ID:           c.ID,
		Type:         string(c.Type),
		Name:         c.Name,
		Avatar:       c.Avatar,
		Participants: make([]userView, len(c.Participants)),
		AdminIDs:     c.AdminIDs,
		UnreadCount:  c.UnreadCount,
	}
	for i, p := range c.Participants {
		view.Participants[i] = newUserView(p, now)
	}
	if c.LastMessage != nil {
		view.LastMessage = &summaryView{
			MessageID:  c.LastMessage.MessageID,
			Preview:    c.LastMessage.Preview,
			SenderID:   c.LastMessage.SenderID,
			SenderName: c.LastMessage.SenderName,
			Timestamp:  c.LastMessage.Timestamp,
			Type:       string(c.LastMessage.Type),
		}
	}
	return view
}

type fileView struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"sizeLabel"`
}

type messageView struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Seq            int64     `json:"seq"`
	Sender         userView  `json:"sender"`
	Type           string    `json:"type"`
	Text           string    `json:"text,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	File           *fileView `json:"file,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	Edited         bool      `json:"edited"`
}

func newMessageView(m *domain.Message, now time.Time) messageView {
	view := messageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Seq:            m.Seq,
		Sender:         newUserView(m.Sender, now),
		Type:           string(m.Type),
		Text:           m.Text,
		ImageURL:       m.ImageURL,
		Timestamp:      m.Timestamp,
		Status:         string(m.Status),
		Edited:         m.Edited,
	}
	if m.File != nil {
		view.File = &fileView{
			Name:      m.File.Name,
			Size:      m.File.Size,
			SizeLabel: domain.FormatFileSize(m.File.Size),
		}
	}
	return view
}

type dateGroupView struct {
	Label    string        `json:"label"`
	Date     string        `json:"date"`
	Messages []messageView `json:"messages"`
}

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.sessions.Login(w, r, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.serverError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserView(*user, time.Now()))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserView(*currentUser(r), time.Now()))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r)
	if err := h.userSvc.SetPresence(r.Context(), user.ID, domain.Status(req.Status)); err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	now := time.Now()
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = newUserView(*u, now)
	}
	writeJSON(w, http.StatusOK, views)
}

// --- conversations ---

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chatSvc.ListConversations(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		h.serverError(w, err)
		return
	}

	now := time.Now()
	views := make([]conversationView, len(conversations))
	for i, c := range conversations {
		views[i] = newConversationView(c, now)
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chatSvc.ListConversations(r.Context(), "")
	if err != nil {
		h.serverError(w, err)
		return
	}

	id := mux.Vars(r)["id"]
	for _, c := range conversations {
		if c.ID == id {
			writeJSON(w, http.StatusOK, newConversationView(c, time.Now()))
			return
		}
	}
	writeError(w, http.StatusNotFound, "conversation not found")
}

func (h *Handler) SelectConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.chatSvc.SelectConversation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newConversationView(conv, time.Now()))
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	conv, err := h.groupSvc.Rename(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newConversationView(conv, time.Now()))
}

type participantRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.groupSvc.AddParticipant(r.Context(), mux.Vars(r)["id"], req.UserID); err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.groupSvc.RemoveParticipant(r.Context(), vars["id"], vars["userID"]); err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminRequest struct {
	Admin bool `json:"admin"`
}

func (h *Handler) SetParticipantAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars := mux.Vars(r)
	if err := h.groupSvc.SetAdmin(r.Context(), vars["id"], vars["userID"], req.Admin); err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- messages ---

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	now := time.Now()

	if r.URL.Query().Get("grouped") == "true" {
		groups, err := h.chatSvc.Thread(r.Context(), id)
		if err != nil {
			h.domainError(w, err)
			return
		}

		views := make([]dateGroupView, len(groups))
		for i, g := range groups {
			view := dateGroupView{
				Label:    g.Label,
				Date:     g.Day.Format("2006-01-02"),
				Messages: make([]messageView, len(g.Messages)),
			}
			for j, m := range g.Messages {
				view.Messages[j] = newMessageView(m, now)
			}
			views[i] = view
		}
		writeJSON(w, http.StatusOK, views)
		return
	}

	messages, err := h.chatSvc.Messages(r.Context(), id)
	if err != nil {
		h.domainError(w, err)
		return
	}

	views := make([]messageView, len(messages))
	for i, m := range messages {
		views[i] = newMessageView(m, now)
	}
	writeJSON(w, http.StatusOK, views)
}

type sendRequest struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = string(domain.MessageTypeText)
	}

	draft := domain.Draft{
		Type:     domain.MessageType(req.Type),
		Text:     req.Text,
		ImageURL: req.ImageURL,
		FileName: req.FileName,
		FileSize: req.FileSize,
	}

	msg, err := h.chatSvc.SendMessage(r.Context(), currentUser(r).ID, mux.Vars(r)["id"], draft)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMessageView(msg, time.Now()))
}

type editRequest struct {
	Content string `json:"content"`
}

func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg, err := h.chatSvc.EditMessage(r.Context(), currentUser(r).ID, mux.Vars(r)["id"], req.Content)
	if err != nil {
		h.domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newMessageView(msg, time.Now()))
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteMessage(r.Context(), currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		h.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	messages, err := h.chatSvc.SearchMessages(r.Context(), query, limit)
	if err != nil {
		h.serverError(w, err)
		return
	}

	now := time.Now()
	views := make([]messageView, len(messages))
	for i, m := range messages {
		views[i] = newMessageView(m, now)
	}
	writeJSON(w, http.StatusOK, views)
}

// --- notifications ---

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.chatSvc.Counts(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// --- helpers ---

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, err.Error())
}

// domainError maps core error kinds onto HTTP statuses. All of these are
// non-retryable; the client shows them inline.
func (h *Handler) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotSender):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrEditWindowExpired),
		errors.Is(err, domain.ErrDeleteWindowExpired):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidDraft),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrNotGroup),
		errors.Is(err, domain.ErrNotParticipant):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.serverError(w, err)
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chatflow-oss/chatflow/internal/delivery"
	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/repository"
	"github.com/chatflow-oss/chatflow/internal/seed"
	"github.com/chatflow-oss/chatflow/internal/service"
	"github.com/chatflow-oss/chatflow/internal/session"
)

var testDBCounter int64

// newTestServer stands up the full API over the seeded demo dataset and
// returns an authenticated client plus the server URL.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	dsn := fmt.Sprintf("file:httpapi%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := repository.Open(dsn)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	bus := domain.NewEventBus()
	clock := delivery.SystemClock()

	if err := seed.Load(context.Background(), userRepo, convRepo, msgRepo, clock); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	chatSvc := service.NewChatService(userRepo, convRepo, msgRepo, bus, clock)
	userSvc := service.NewUserService(userRepo, bus, clock)
	groupSvc := service.NewGroupService(convRepo, userRepo)
	sessions := session.NewManager("test-signing-key", userSvc)

	server := NewServer(chatSvc, groupSvc, userSvc, sessions, ServerConfig{Address: "127.0.0.1:0"})

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar, Timeout: 5 * time.Second}

	return ts, client
}

func login(t *testing.T, ts *httptest.Server, client *http.Client, email, password string) *http.Response {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := client.Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	return resp
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestLogin(t *testing.T) {
	ts, client := newTestServer(t)

	resp := login(t, ts, client, "admin@chatflow.com", "admin123")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	var user struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	decode(t, resp, &user)

	if user.ID != "user-1" || user.Name != "John Doe" {
		t.Errorf("logged in as %s/%s, want user-1/John Doe", user.ID, user.Name)
	}
	if user.Status != "online" {
		t.Errorf("status = %s, want online after login", user.Status)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts, client := newTestServer(t)

	resp := login(t, ts, client, "admin@chatflow.com", "wrong")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", resp.StatusCode)
	}

	resp = login(t, ts, client, "nobody@chatflow.com", "admin123")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want 401", resp.StatusCode)
	}
}

func TestRequiresAuthentication(t *testing.T) {
	ts, client := newTestServer(t)

	resp, err := client.Get(ts.URL + "/api/conversations")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}
}

type conversationResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	UnreadCount int    `json:"unreadCount"`
	LastMessage *struct {
		Preview string `json:"preview"`
	} `json:"lastMessage"`
}

func TestConversationListOrderAndUnread(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	resp := doJSON(t, client, http.MethodGet, ts.URL+"/api/conversations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}

	var conversations []conversationResponse
	decode(t, resp, &conversations)

	if len(conversations) != 3 {
		t.Fatalf("len = %d, want 3", len(conversations))
	}
	for i, wantID := range []string{"conv-1", "conv-2", "conv-3"} {
		if conversations[i].ID != wantID {
			t.Errorf("position %d = %s, want %s", i, conversations[i].ID, wantID)
		}
	}
	if conversations[0].UnreadCount != 2 {
		t.Errorf("conv-1 unread = %d, want 2", conversations[0].UnreadCount)
	}
	if conversations[0].LastMessage == nil || conversations[0].LastMessage.Preview == "" {
		t.Error("conv-1 should carry a last message preview")
	}
}

func TestSelectClearsUnread(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/conversations/conv-1/select", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select status = %d, want 200", resp.StatusCode)
	}

	var selected conversationResponse
	decode(t, resp, &selected)
	if selected.UnreadCount != 0 {
		t.Errorf("selected unread = %d, want 0", selected.UnreadCount)
	}

	var counts struct {
		Messages int `json:"messages"`
		Groups   int `json:"groups"`
		Total    int `json:"total"`
	}
	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/notifications/counts", nil)
	decode(t, resp, &counts)
	if counts.Messages != 0 || counts.Total != 0 {
		t.Errorf("counts after select = %+v, want zeros", counts)
	}
}

func TestSendMessage(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/conversations/conv-1/messages",
		map[string]string{"text": "hello from the API"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send status = %d, want 201", resp.StatusCode)
	}

	var msg struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Text   string `json:"text"`
	}
	decode(t, resp, &msg)
	if msg.Status != "sent" {
		t.Errorf("status = %s, want sent", msg.Status)
	}
	if msg.Text != "hello from the API" {
		t.Errorf("text = %q", msg.Text)
	}

	// The list summary follows the send.
	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/conversations/conv-1", nil)
	var conv conversationResponse
	decode(t, resp, &conv)
	if conv.LastMessage == nil || conv.LastMessage.Preview != "hello from the API" {
		t.Errorf("last message preview not updated: %+v", conv.LastMessage)
	}
}

func TestSendMessageRejectsEmptyDraft(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/conversations/conv-1/messages",
		map[string]string{"text": ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty draft status = %d, want 400", resp.StatusCode)
	}
}

func TestEditErrorMapping(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	// msg-1 was sent by Sarah, not the logged-in user.
	resp := doJSON(t, client, http.MethodPatch, ts.URL+"/api/messages/msg-1",
		map[string]string{"content": "hijack"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-sender edit status = %d, want 403", resp.StatusCode)
	}

	// msg-2 is the current user's, but seeded 55 minutes old.
	resp = doJSON(t, client, http.MethodPatch, ts.URL+"/api/messages/msg-2",
		map[string]string{"content": "too late"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expired edit status = %d, want 409", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPatch, ts.URL+"/api/messages/missing",
		map[string]string{"content": "x"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing edit status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteWithinWindow(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	// msg-7 is the current user's, one hour old: inside the delete window,
	// outside the edit window.
	resp := doJSON(t, client, http.MethodDelete, ts.URL+"/api/messages/msg-7", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodDelete, ts.URL+"/api/messages/msg-7", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestGroupEndpoints(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	resp := doJSON(t, client, http.MethodPatch, ts.URL+"/api/conversations/conv-2",
		map[string]string{"name": "Launch Team"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d, want 200", resp.StatusCode)
	}
	var conv conversationResponse
	decode(t, resp, &conv)
	if conv.Name != "Launch Team" {
		t.Errorf("name = %q", conv.Name)
	}

	// Renaming a direct conversation is a client error.
	resp = doJSON(t, client, http.MethodPatch, ts.URL+"/api/conversations/conv-1",
		map[string]string{"name": "nope"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("rename direct status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/conversations/conv-2/participants",
		map[string]string{"userId": "user-6"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("add participant status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodPut, ts.URL+"/api/conversations/conv-2/participants/user-6/admin",
		map[string]bool{"admin": true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("set admin status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodDelete, ts.URL+"/api/conversations/conv-2/participants/user-6", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("remove participant status = %d, want 204", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	resp := doJSON(t, client, http.MethodGet, ts.URL+"/api/messages/search?q=deadline", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d, want 200", resp.StatusCode)
	}

	var hits []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}
	decode(t, resp, &hits)
	if len(hits) != 1 || hits[0].ID != "msg-6" {
		t.Errorf("hits = %+v, want just msg-6", hits)
	}

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/messages/search", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing query status = %d, want 400", resp.StatusCode)
	}
}

func TestLogoutDropsSession(t *testing.T) {
	ts, client := newTestServer(t)
	login(t, ts, client, "admin@chatflow.com", "admin123").Body.Close()

	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, client, http.MethodGet, ts.URL+"/api/me", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", resp.StatusCode)
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

var testDBCounter int64

func openTestRepos(t *testing.T) (UserRepository, ConversationRepository, MessageRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:repo%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	return NewUserRepository(db), NewConversationRepository(db), NewMessageRepository(db)
}

func seedUsers(t *testing.T, users UserRepository) (domain.User, domain.User) {
	t.Helper()
	ctx := context.Background()

	john := domain.User{ID: "user-1", Name: "John Doe", Email: "john@example.com", Status: domain.StatusOnline}
	sarah := domain.User{ID: "user-2", Name: "Sarah Wilson", Email: "sarah@example.com", Status: domain.StatusAway}
	for _, u := range []domain.User{john, sarah} {
		u := u
		if err := users.Upsert(ctx, &u); err != nil {
			t.Fatalf("Upsert %s: %v", u.ID, err)
		}
	}
	return john, sarah
}

func TestConversationPositionsFollowInsertionOrder(t *testing.T) {
	users, convs, _ := openTestRepos(t)
	_, sarah := seedUsers(t, users)
	ctx := context.Background()

	first := domain.NewDirectConversation("conv-a", sarah)
	second := domain.NewGroupConversation("conv-b", "Team", []domain.User{sarah})
	third := domain.NewDirectConversation("conv-c", sarah)

	for _, c := range []*domain.Conversation{first, second, third} {
		if err := convs.Create(ctx, c); err != nil {
			t.Fatalf("Create %s: %v", c.ID, err)
		}
	}

	all, err := convs.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, wantID := range []string{"conv-a", "conv-b", "conv-c"} {
		if all[i].ID != wantID {
			t.Errorf("position %d = %s, want %s", i, all[i].ID, wantID)
		}
		if all[i].Position != i+1 {
			t.Errorf("%s position = %d, want %d", all[i].ID, all[i].Position, i+1)
		}
	}
}

func TestConversationSearchEscapesLikeWildcards(t *testing.T) {
	users, convs, _ := openTestRepos(t)
	_, sarah := seedUsers(t, users)
	ctx := context.Background()

	plain := domain.NewGroupConversation("conv-a", "Design 100%", []domain.User{sarah})
	other := domain.NewGroupConversation("conv-b", "Design 1000", []domain.User{sarah})
	for _, c := range []*domain.Conversation{plain, other} {
		if err := convs.Create(ctx, c); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	hits, err := convs.Search(ctx, "100%")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "conv-a" {
		t.Errorf("hits = %d, want only the literal %% match", len(hits))
	}
}

func TestConversationSearchMatchesPreview(t *testing.T) {
	users, convs, _ := openTestRepos(t)
	john, sarah := seedUsers(t, users)
	ctx := context.Background()

	conv := domain.NewDirectConversation("conv-a", sarah)
	if err := convs.Create(ctx, conv); err != nil {
		t.Fatalf("Create: %v", err)
	}

	msg := domain.NewTextMessage("m1", "conv-a", john, "calendar invite sent", time.Now())
	if err := convs.UpdateLastMessage(ctx, "conv-a", msg.Summary()); err != nil {
		t.Fatalf("UpdateLastMessage: %v", err)
	}

	hits, err := convs.Search(ctx, "calendar")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %d, want 1 via last-message preview", len(hits))
	}
}

func TestMessageSeqAssignedPerConversation(t *testing.T) {
	users, convs, msgs := openTestRepos(t)
	john, sarah := seedUsers(t, users)
	ctx := context.Background()

	for _, id := range []string{"conv-a", "conv-b"} {
		if err := convs.Create(ctx, domain.NewDirectConversation(id, sarah)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	now := time.Now()
	for i, convID := range []string{"conv-a", "conv-a", "conv-b", "conv-a"} {
		msg := domain.NewTextMessage(fmt.Sprintf("m%d", i), convID, john, "hi", now)
		if err := msgs.Create(ctx, msg); err != nil {
			t.Fatalf("Create message: %v", err)
		}
	}

	inA, err := msgs.ListByConversation(ctx, "conv-a")
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(inA) != 3 {
		t.Fatalf("conv-a len = %d, want 3", len(inA))
	}
	for i, msg := range inA {
		if msg.Seq != int64(i+1) {
			t.Errorf("conv-a seq[%d] = %d, want %d", i, msg.Seq, i+1)
		}
	}

	inB, _ := msgs.ListByConversation(ctx, "conv-b")
	if len(inB) != 1 || inB[0].Seq != 1 {
		t.Errorf("conv-b should have its own sequence starting at 1")
	}
}

func TestMessageUpdateStatusMissing(t *testing.T) {
	_, _, msgs := openTestRepos(t)
	ctx := context.Background()

	err := msgs.UpdateStatus(ctx, "missing", domain.MessageStatusRead)
	if !errors.Is(err, domain.ErrMessageNotFound) {
		t.Errorf("UpdateStatus missing = %v, want ErrMessageNotFound", err)
	}

	if err := msgs.Delete(ctx, "missing"); !errors.Is(err, domain.ErrMessageNotFound) {
		t.Errorf("Delete missing = %v, want ErrMessageNotFound", err)
	}
}

func TestUserPresenceRoundTrip(t *testing.T) {
	users, _, _ := openTestRepos(t)
	seedUsers(t, users)
	ctx := context.Background()

	at := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if err := users.UpdatePresence(ctx, "user-2", domain.StatusOffline, at); err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}

	sarah, err := users.GetByID(ctx, "user-2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sarah.Status != domain.StatusOffline {
		t.Errorf("status = %s, want offline", sarah.Status)
	}
	if !sarah.LastSeen.Equal(at) {
		t.Errorf("last seen = %v, want %v", sarah.LastSeen, at)
	}

	if err := users.UpdatePresence(ctx, "ghost", domain.StatusOnline, at); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("UpdatePresence ghost = %v, want ErrUserNotFound", err)
	}

	missing, err := users.GetByID(ctx, "ghost")
	if err != nil || missing != nil {
		t.Errorf("GetByID ghost = %v/%v, want nil/nil", missing, err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	users, _, _ := openTestRepos(t)
	seedUsers(t, users)
	ctx := context.Background()

	john, err := users.GetByEmail(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if john == nil || john.ID != "user-1" {
		t.Errorf("GetByEmail = %+v, want user-1", john)
	}

	nobody, err := users.GetByEmail(ctx, "nobody@example.com")
	if err != nil || nobody != nil {
		t.Errorf("unknown email = %v/%v, want nil/nil", nobody, err)
	}
}

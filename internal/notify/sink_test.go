package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"go-gin-social/internal/core/database"
	"go-gin-social/internal/domain"
	"go-gin-social/internal/eventbus"
	"go-gin-social/internal/repo"
)

type fixture struct {
	sink  *Sink
	users *repo.UserRepo
	notes *repo.NotificationRepo
	alice *domain.User
	bob   *domain.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	f := &fixture{users: repo.NewUserRepo(db), notes: repo.NewNotificationRepo(db)}
	f.sink = NewSink(f.notes, f.users, nil)
	for _, name := range []string{"alice", "bob"} {
		u := &domain.User{ID: uuid.NewString(), Username: name, Email: name + "@example.com", PasswordHash: "x"}
		if err := f.users.Create(context.Background(), u); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if name == "alice" {
			f.alice = u
		} else {
			f.bob = u
		}
	}
	return f
}

func TestRecord_Content(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tests := []struct {
		ev   domain.Event
		want string
	}{
		{domain.Event{Name: domain.EventFriendRequest, Type: domain.NotifyFriendRequest, FromID: f.alice.ID, ToID: f.bob.ID},
			"New friend request from alice"},
		{domain.Event{Name: domain.EventRequestAccepted, Type: domain.NotifyRequestAccepted, FromID: f.bob.ID, ToID: f.alice.ID},
			"Your friend request to bob has been accepted."},
		{domain.Event{Name: domain.EventMessageReceived, Type: domain.NotifyMessage, FromID: f.alice.ID, ToID: f.bob.ID},
			"New message from alice"},
	}
	for _, tt := range tests {
		n := f.sink.Record(ctx, tt.ev)
		if n == nil {
			t.Fatalf("%s: not recorded", tt.ev.Name)
		}
		if n.Content != tt.want || n.Seen || n.Type != tt.ev.Type {
			t.Errorf("%s: got %+v", tt.ev.Name, n)
		}
	}
}

func TestRecord_SkipsUnknownUsersAndTypes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if n := f.sink.Record(ctx, domain.Event{Type: domain.NotifyMessage, FromID: f.alice.ID, ToID: uuid.NewString()}); n != nil {
		t.Fatal("recipient missing: should skip")
	}
	if n := f.sink.Record(ctx, domain.Event{Type: "poke", FromID: f.alice.ID, ToID: f.bob.ID}); n != nil {
		t.Fatal("unknown type: should skip")
	}
	list, _ := f.notes.ListByRecipient(ctx, f.bob.ID)
	if len(list) != 0 {
		t.Fatalf("stored %d notifications, want 0", len(list))
	}
}

type failingStore struct{ Store }

func (failingStore) Create(context.Context, *domain.Notification) error { return errors.New("disk full") }

// 持久化失败被吞掉，不 panic 也不返回错误
func TestRecord_StoreFailureSwallowed(t *testing.T) {
	f := setup(t)
	s := NewSink(failingStore{}, f.users, nil)
	if n := s.Record(context.Background(), domain.Event{Type: domain.NotifyMessage, FromID: f.alice.ID, ToID: f.bob.ID}); n != nil {
		t.Fatal("expected nil on failure")
	}
}

func TestSink_RecipientOperations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	n := f.sink.Record(ctx, domain.Event{Type: domain.NotifyFriendRequest, FromID: f.alice.ID, ToID: f.bob.ID})

	views, err := f.sink.ListByRecipient(ctx, f.bob.ID)
	if err != nil || len(views) != 1 {
		t.Fatalf("list = %d, %v", len(views), err)
	}
	if views[0].From == nil || views[0].From.Username != "alice" {
		t.Fatalf("from = %+v", views[0].From)
	}

	for i := 0; i < 2; i++ {
		if err := f.sink.MarkSeen(ctx, n.ID, f.bob.ID); err != nil {
			t.Fatalf("mark seen #%d: %v", i, err)
		}
	}
	if err := f.sink.MarkSeen(ctx, n.ID, f.alice.ID); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("sender mark seen err = %v, want not found", err)
	}
	if err := f.sink.Delete(ctx, n.ID, f.alice.ID); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("sender delete err = %v, want not found", err)
	}
	if err := f.sink.Delete(ctx, n.ID, f.bob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.sink.Delete(ctx, n.ID, f.bob.ID); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestRegister_BusDrivesSink(t *testing.T) {
	f := setup(t)
	bus := eventbus.New(nil, time.Second)
	f.sink.Register(bus)

	bus.Emit(context.Background(), domain.Event{
		Name: domain.EventFriendRequest, Type: domain.NotifyFriendRequest,
		FromID: f.alice.ID, ToID: f.bob.ID, At: time.Now(),
	})
	bus.Wait()

	list, _ := f.notes.ListByRecipient(context.Background(), f.bob.ID)
	if len(list) != 1 || list[0].Type != domain.NotifyFriendRequest {
		t.Fatalf("notifications = %+v", list)
	}
}

func TestPurger_RunOnceIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	old := f.sink.Record(ctx, domain.Event{Type: domain.NotifyMessage, FromID: f.alice.ID, ToID: f.bob.ID,
		At: time.Now().Add(-8 * 24 * time.Hour)})
	f.sink.Record(ctx, domain.Event{Type: domain.NotifyMessage, FromID: f.alice.ID, ToID: f.bob.ID})
	if old == nil {
		t.Fatal("seed failed")
	}

	p := NewPurger(f.sink, 7*24*time.Hour, nil)
	if n, err := p.RunOnce(ctx); err != nil || n != 1 {
		t.Fatalf("first purge = %d, %v", n, err)
	}
	if n, err := p.RunOnce(ctx); err != nil || n != 0 {
		t.Fatalf("second purge = %d, %v", n, err)
	}
}

func TestPurger_StartRejectsBadSpec(t *testing.T) {
	p := NewPurger(setup(t).sink, time.Hour, nil)
	if err := p.Start("not a cron"); err == nil {
		t.Fatal("expected error")
	}
	if err := p.Start("0 0 * * *"); err != nil {
		t.Fatalf("start: %v", err)
	}
	p.Stop(context.Background())
}

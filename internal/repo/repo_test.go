package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-gin-social/internal/core/database"
	"go-gin-social/internal/domain"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, users *UserRepo, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.NewString(), Username: name, Email: name + "@example.com", PasswordHash: "x", Role: domain.RoleUser}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return u
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(openDB(t))
	seedUser(t, users, "alice")

	dup := &domain.User{ID: uuid.NewString(), Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	err := users.Create(ctx, dup)
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestUserRepo_SearchAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(openDB(t))
	alice := seedUser(t, users, "alice")
	seedUser(t, users, "Alina")
	bob := seedUser(t, users, "bob")

	got, err := users.Search(ctx, "ALI", bob.ID)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("search returned %d users, want 2", len(got))
	}
	got, _ = users.Search(ctx, "ali", alice.ID)
	if len(got) != 1 || got[0].Username != "Alina" {
		t.Fatalf("search should exclude caller, got %+v", got)
	}

	ok, err := users.SoftDelete(ctx, bob.ID)
	if err != nil || !ok {
		t.Fatalf("soft delete: ok=%v err=%v", ok, err)
	}
	if u, _ := users.FindByID(ctx, bob.ID); u != nil {
		t.Fatal("soft-deleted user still visible")
	}
	_, total, _ := users.List(ctx, ListQuery{WithDeleted: true})
	if total != 3 {
		t.Fatalf("total with deleted = %d, want 3", total)
	}
}

func TestRelationRepo_SetPairAndForUser(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users := NewUserRepo(db)
	rels := NewRelationRepo(db)
	a := seedUser(t, users, "a")
	b := seedUser(t, users, "b")

	if err := rels.SetPair(ctx, a.ID, b.ID, domain.KindOutgoing, domain.KindIncoming); err != nil {
		t.Fatalf("set pair: %v", err)
	}
	ka, kb, err := rels.PairKinds(ctx, a.ID, b.ID)
	if err != nil || ka != domain.KindOutgoing || kb != domain.KindIncoming {
		t.Fatalf("pair kinds = %q/%q err=%v", ka, kb, err)
	}

	// 覆盖写为好友
	if err := rels.SetPair(ctx, b.ID, a.ID, domain.KindFriend, domain.KindFriend); err != nil {
		t.Fatalf("set pair: %v", err)
	}
	ra, _ := rels.ForUser(ctx, a.ID)
	rb, _ := rels.ForUser(ctx, b.ID)
	if len(ra.Friends) != 1 || ra.Friends[0] != b.ID || len(ra.Outgoing) != 0 || len(ra.Incoming) != 0 {
		t.Fatalf("a relations = %+v", ra)
	}
	if len(rb.Friends) != 1 || rb.Friends[0] != a.ID || len(rb.Incoming) != 0 {
		t.Fatalf("b relations = %+v", rb)
	}

	if err := rels.SetPair(ctx, a.ID, b.ID, domain.KindNone, domain.KindNone); err != nil {
		t.Fatalf("clear pair: %v", err)
	}
	ka, kb, _ = rels.PairKinds(ctx, a.ID, b.ID)
	if ka != domain.KindNone || kb != domain.KindNone {
		t.Fatalf("after clear = %q/%q", ka, kb)
	}
}

func TestRelationRepo_TransactionRollsBackBothRecords(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users := NewUserRepo(db)
	rels := NewRelationRepo(db)
	a := seedUser(t, users, "a")
	b := seedUser(t, users, "b")

	boom := errors.New("second write failed")
	err := rels.Transaction(ctx, func(tx *RelationRepo) error {
		locked, err := tx.LockUsers(ctx, a.ID, b.ID)
		if err != nil {
			return err
		}
		if len(locked) != 2 {
			t.Errorf("locked %d users, want 2", len(locked))
		}
		if err := tx.SetPair(ctx, a.ID, b.ID, domain.KindFriend, domain.KindFriend); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	ka, kb, _ := rels.PairKinds(ctx, a.ID, b.ID)
	if ka != domain.KindNone || kb != domain.KindNone {
		t.Fatalf("rollback left %q/%q", ka, kb)
	}
}

func TestNotificationRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	notes := NewNotificationRepo(openDB(t))
	base := time.Now().Add(-10 * 24 * time.Hour)

	for i, age := range []time.Duration{0, 5 * 24 * time.Hour, 9 * 24 * time.Hour} {
		n := &domain.Notification{
			ID: uuid.NewString(), FromID: "a", ToID: "b",
			Type: domain.NotifyMessage, Content: "hi", CreatedAt: base.Add(age),
		}
		if i == 0 {
			n.ToID = "c"
		}
		if err := notes.Create(ctx, n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := notes.ListByRecipient(ctx, "b")
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %d err=%v", len(list), err)
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatal("list must be newest first")
	}

	id := list[0].ID
	for i := 0; i < 2; i++ {
		ok, err := notes.MarkSeen(ctx, id, "b")
		if err != nil || !ok {
			t.Fatalf("mark seen #%d: ok=%v err=%v", i, ok, err)
		}
	}
	n, _ := notes.FindByID(ctx, id)
	if !n.Seen {
		t.Fatal("notification should be seen")
	}
	if ok, _ := notes.MarkSeen(ctx, id, "c"); ok {
		t.Fatal("other user must not mark someone else's notification")
	}

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	deleted, err := notes.DeleteOlderThan(ctx, cutoff)
	if err != nil || deleted != 1 {
		t.Fatalf("purge #1 deleted=%d err=%v", deleted, err)
	}
	deleted, err = notes.DeleteOlderThan(ctx, cutoff)
	if err != nil || deleted != 0 {
		t.Fatalf("purge #2 deleted=%d err=%v", deleted, err)
	}
}

func TestMessageRepo_Between(t *testing.T) {
	ctx := context.Background()
	msgs := NewMessageRepo(openDB(t))
	now := time.Now()
	seed := []domain.Message{
		{ID: uuid.NewString(), SenderID: "a", ReceiverID: "b", Content: "1", CreatedAt: now.Add(-3 * time.Minute)},
		{ID: uuid.NewString(), SenderID: "b", ReceiverID: "a", Content: "2", CreatedAt: now.Add(-2 * time.Minute)},
		{ID: uuid.NewString(), SenderID: "a", ReceiverID: "c", Content: "3", CreatedAt: now.Add(-1 * time.Minute)},
	}
	for i := range seed {
		if err := msgs.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	conv, err := msgs.Between(ctx, "b", "a")
	if err != nil || len(conv) != 2 || conv[0].Content != "2" {
		t.Fatalf("between = %+v err=%v", conv, err)
	}
	mine, _ := msgs.ListForUser(ctx, "a")
	if len(mine) != 3 || mine[0].Content != "3" {
		t.Fatalf("list for a = %+v", mine)
	}
}

func TestUserRepo_SearchTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(openDB(t))
	alice := seedUser(t, users, "alice")
	seedUser(t, users, "bob")
	seedUser(t, users, "under_score")
	seedUser(t, users, "underXscore")
	seedUser(t, users, "bang!")

	tests := []struct {
		query string
		want  int
	}{
		{"%", 0},
		{"_", 1},
		{"r_s", 1},
		{"!", 1},
		{"o", 4},
	}
	for _, tt := range tests {
		got, err := users.Search(ctx, tt.query, alice.ID)
		if err != nil {
			t.Fatalf("search %q: %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("search %q = %d users, want %d", tt.query, len(got), tt.want)
		}
		_, total, err := users.List(ctx, ListQuery{Q: tt.query})
		if err != nil {
			t.Fatalf("list %q: %v", tt.query, err)
		}
		// List 不排除调用者
		want := int64(tt.want)
		if strings.Contains("alice@example.com", tt.query) {
			want++
		}
		if total != want {
			t.Errorf("list %q total = %d, want %d", tt.query, total, want)
		}
	}
}

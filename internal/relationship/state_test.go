package relationship

import (
	"errors"
	"testing"
	"time"

	"go-gin-social/internal/domain"
)

var now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestDerive(t *testing.T) {
	tests := []struct {
		a, b domain.RelationKind
		want State
		ok   bool
	}{
		{domain.KindNone, domain.KindNone, None, true},
		{domain.KindOutgoing, domain.KindIncoming, ActorRequested, true},
		{domain.KindIncoming, domain.KindOutgoing, TargetRequested, true},
		{domain.KindFriend, domain.KindFriend, Friends, true},
		// 不一致的历史数据
		{domain.KindFriend, domain.KindIncoming, Friends, false},
		{domain.KindOutgoing, domain.KindNone, ActorRequested, false},
		{domain.KindNone, domain.KindOutgoing, TargetRequested, false},
	}
	for _, tt := range tests {
		got := Derive(tt.a, tt.b)
		if got != tt.want {
			t.Errorf("Derive(%q,%q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if Consistent(tt.a, tt.b) != tt.ok {
			t.Errorf("Consistent(%q,%q) = %v, want %v", tt.a, tt.b, !tt.ok, tt.ok)
		}
	}
}

func TestApply_Table(t *testing.T) {
	states := map[State][2]domain.RelationKind{}
	for _, s := range []State{None, ActorRequested, TargetRequested, Friends} {
		a, b := s.Kinds()
		states[s] = [2]domain.RelationKind{a, b}
	}

	tests := []struct {
		op      Op
		from    State
		to      State
		wantErr error
		event   string
	}{
		{OpRequest, None, ActorRequested, nil, domain.EventFriendRequest},
		{OpRequest, ActorRequested, 0, domain.ErrDuplicateRequest, ""},
		{OpRequest, TargetRequested, 0, domain.ErrReciprocalRequest, ""},
		{OpRequest, Friends, 0, domain.ErrAlreadyFriends, ""},

		{OpAccept, TargetRequested, Friends, nil, domain.EventRequestAccepted},
		{OpAccept, None, 0, domain.ErrNoSuchRequest, ""},
		{OpAccept, ActorRequested, 0, domain.ErrNoSuchRequest, ""},
		{OpAccept, Friends, 0, domain.ErrAlreadyFriends, ""},

		{OpCancel, ActorRequested, None, nil, ""},
		{OpCancel, None, 0, domain.ErrNoSuchRequest, ""},
		{OpCancel, TargetRequested, 0, domain.ErrNoSuchRequest, ""},
		{OpCancel, Friends, 0, domain.ErrNoSuchRequest, ""},

		{OpDecline, TargetRequested, None, nil, ""},
		{OpDecline, ActorRequested, 0, domain.ErrNoSuchRequest, ""},
		{OpDecline, None, 0, domain.ErrNoSuchRequest, ""},

		{OpRemove, Friends, None, nil, ""},
		{OpRemove, None, 0, domain.ErrNotFriends, ""},
		{OpRemove, ActorRequested, 0, domain.ErrNotFriends, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.op)+"/"+tt.from.String(), func(t *testing.T) {
			k := states[tt.from]
			tr, err := Apply(tt.op, "A", "B", k[0], k[1], now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tr.From != tt.from || tr.To != tt.to {
				t.Errorf("transition %v→%v, want %v→%v", tr.From, tr.To, tt.from, tt.to)
			}
			// 迁移结果必须是一致状态
			na, nb := tr.To.Kinds()
			if !Consistent(na, nb) {
				t.Errorf("target state %v produces inconsistent kinds %q/%q", tr.To, na, nb)
			}
			if tt.event == "" {
				if len(tr.Events) != 0 {
					t.Errorf("events = %v, want none", tr.Events)
				}
				return
			}
			if len(tr.Events) != 1 {
				t.Fatalf("events = %d, want 1", len(tr.Events))
			}
			ev := tr.Events[0]
			if ev.Name != tt.event || ev.FromID != "A" || ev.ToID != "B" || !ev.At.Equal(now) {
				t.Errorf("event = %+v", ev)
			}
		})
	}
}

func TestApply_Self(t *testing.T) {
	for _, op := range []Op{OpRequest, OpAccept, OpCancel, OpDecline, OpRemove} {
		if _, err := Apply(op, "A", "A", domain.KindNone, domain.KindNone, now); !errors.Is(err, domain.ErrSelfRelation) {
			t.Errorf("%s self: err = %v", op, err)
		}
	}
}

func TestApply_UnknownOp(t *testing.T) {
	_, err := Apply(Op("block"), "A", "B", domain.KindNone, domain.KindNone, now)
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

// 请求→接受→删除 的往返都回到一致状态
func TestApply_RoundTrips(t *testing.T) {
	a, b := domain.KindNone, domain.KindNone
	step := func(op Op, actor, target string) {
		t.Helper()
		var ka, kb domain.RelationKind
		if actor == "A" {
			ka, kb = a, b
		} else {
			ka, kb = b, a
		}
		tr, err := Apply(op, actor, target, ka, kb, now)
		if err != nil {
			t.Fatalf("%s(%s,%s): %v", op, actor, target, err)
		}
		na, nb := tr.To.Kinds()
		if actor == "A" {
			a, b = na, nb
		} else {
			a, b = nb, na
		}
		if !Consistent(a, b) {
			t.Fatalf("inconsistent after %s: %q/%q", op, a, b)
		}
	}

	step(OpRequest, "A", "B")
	step(OpCancel, "A", "B")
	if a != domain.KindNone || b != domain.KindNone {
		t.Fatalf("after cancel: %q/%q", a, b)
	}

	step(OpRequest, "A", "B")
	step(OpAccept, "B", "A")
	if a != domain.KindFriend || b != domain.KindFriend {
		t.Fatalf("after accept: %q/%q", a, b)
	}
	step(OpRemove, "B", "A")
	if a != domain.KindNone || b != domain.KindNone {
		t.Fatalf("after remove: %q/%q", a, b)
	}

	step(OpRequest, "B", "A")
	step(OpDecline, "A", "B")
	if a != domain.KindNone || b != domain.KindNone {
		t.Fatalf("after decline: %q/%q", a, b)
	}
}

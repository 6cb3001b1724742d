package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vea-app/vea/internal/types"
)

func TestMemoryMessageRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	identity := types.Identity{UserID: uuid.New(), OrgID: uuid.New()}
	session := types.NewConversationSession(types.NewSessionID(), identity, "chat")

	if err := m.UpsertSession(ctx, session.Meta()); err != nil {
		t.Fatal(err)
	}
	for _, content := range []string{"one", "two", "three"} {
		if err := m.AppendMessage(ctx, types.NewMessage(session.ID, types.RoleUser, content)); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := m.ListMessages(ctx, session.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 || msgs[0].Content != "one" {
		t.Fatalf("messages = %+v", msgs)
	}

	// limit keeps the newest tail
	tail, err := m.ListMessages(ctx, session.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0].Content != "two" {
		t.Fatalf("tail = %+v", tail)
	}
}

func TestMemoryUpdateMessage(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	msg := types.NewMessage(types.NewSessionID(), types.RoleAssistant, "Generating...")
	msg.IsGenerating = true
	if err := m.AppendMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	msg.IsGenerating = false
	msg.MediaURL = "https://x/clip.mp4"
	if err := m.UpdateMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	got, _ := m.ListMessages(ctx, msg.SessionID, 0)
	if got[0].IsGenerating || got[0].MediaURL != "https://x/clip.mp4" {
		t.Errorf("update not applied: %+v", got[0])
	}

	orphan := types.NewMessage(msg.SessionID, types.RoleAssistant, "nope")
	if err := m.UpdateMessage(ctx, orphan); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemorySessionsScopedToIdentity(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := types.Identity{UserID: uuid.New(), OrgID: uuid.New()}
	b := types.Identity{UserID: uuid.New(), OrgID: uuid.New()}

	sa := types.NewConversationSession(types.NewSessionID(), a, "a's chat")
	sb := types.NewConversationSession(types.NewSessionID(), b, "b's chat")
	m.UpsertSession(ctx, sa.Meta())
	m.UpsertSession(ctx, sb.Meta())

	got, err := m.ListSessions(ctx, a.OrgID, a.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != sa.ID {
		t.Errorf("sessions = %+v", got)
	}
}

func TestMemoryDataScopedToOrg(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	org := uuid.New()
	other := uuid.New()

	if err := m.CreateProject(ctx, &types.Project{ID: uuid.New(), OrgID: org, Name: "Site relaunch", Status: "active"}); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateProject(ctx, &types.Project{ID: uuid.New(), OrgID: other, Name: "Not yours", Status: "active"}); err != nil {
		t.Fatal(err)
	}

	mine, err := m.ListProjects(ctx, org, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].Name != "Site relaunch" {
		t.Errorf("projects = %+v", mine)
	}

	active, _ := m.ListProjects(ctx, org, "active")
	if len(active) != 1 {
		t.Errorf("status filter broke: %+v", active)
	}
	done, _ := m.ListProjects(ctx, org, "completed")
	if len(done) != 0 {
		t.Errorf("status filter broke: %+v", done)
	}
}

func TestMemoryCashFlowSince(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	org := uuid.New()

	m.AddCashFlow(&types.CashFlowEntry{ID: uuid.New(), OrgID: org, Kind: "income", Amount: 100, OccurredAt: time.Now().AddDate(0, 0, -2)})
	m.AddCashFlow(&types.CashFlowEntry{ID: uuid.New(), OrgID: org, Kind: "expense", Amount: 40, OccurredAt: time.Now().AddDate(0, -2, 0)})

	recent, err := m.ListCashFlow(ctx, org, time.Now().AddDate(0, -1, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Amount != 100 {
		t.Errorf("entries = %+v", recent)
	}
}

package screen

import (
	"context"
	"testing"
	"time"

	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
)

type nopBackend struct{}

func (nopBackend) Upload(context.Context, qa.File) (qa.UploadResult, error) {
	return qa.UploadResult{}, nil
}

func (nopBackend) Ask(context.Context, qa.AskRequest) (qa.Answer, error) {
	return qa.Answer{}, nil
}

func TestServiceGetScreen(t *testing.T) {
	svc := NewService(nopBackend{}, persona.NewMemoryStore(persona.Seed()), Options{DefaultPersona: "friendly"})
	ctx := context.Background()

	sc := svc.Create(ctx)

	got, err := svc.Get(ctx, sc.ID())
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got != sc {
		t.Fatalf("unexpected screen: got %s want %s", got.ID(), sc.ID())
	}
	if got.View().Persona != "friendly" {
		t.Fatalf("expected default persona friendly, got %s", got.View().Persona)
	}
}

func TestServiceGetScreenNotFound(t *testing.T) {
	svc := NewService(nopBackend{}, persona.NewMemoryStore(persona.Seed()), Options{})

	if _, err := svc.Get(context.Background(), "missing"); err != ErrScreenNotFound {
		t.Fatalf("expected ErrScreenNotFound, got %v", err)
	}
}

func TestServiceScreensAreIndependent(t *testing.T) {
	svc := NewService(nopBackend{}, persona.NewMemoryStore(persona.Seed()), Options{})
	ctx := context.Background()

	a := svc.Create(ctx)
	b := svc.Create(ctx)
	a.SetQuestion("only on a")

	if a.ID() == b.ID() {
		t.Fatal("expected distinct screen ids")
	}
	if b.View().Question != "" {
		t.Fatalf("state leaked between screens: %q", b.View().Question)
	}
}

func TestServicePrunesIdleScreens(t *testing.T) {
	svc := NewService(nopBackend{}, persona.NewMemoryStore(persona.Seed()), Options{IdleTTL: 10 * time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	stale := svc.Create(ctx)
	now = now.Add(8 * time.Minute)
	fresh := svc.Create(ctx)
	now = now.Add(5 * time.Minute)

	if n := svc.Prune(); n != 1 {
		t.Fatalf("expected 1 pruned screen, got %d", n)
	}
	if _, err := svc.Get(ctx, stale.ID()); err != ErrScreenNotFound {
		t.Fatalf("expected stale screen to be gone, got %v", err)
	}
	if _, err := svc.Get(ctx, fresh.ID()); err != nil {
		t.Fatalf("fresh screen pruned: %v", err)
	}
}

func TestServicePruneKeepsSubscribedScreens(t *testing.T) {
	svc := NewService(nopBackend{}, persona.NewMemoryStore(persona.Seed()), Options{IdleTTL: 10 * time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	sc := svc.Create(ctx)
	_, unsubscribe := sc.Subscribe()
	now = now.Add(11 * time.Minute)

	if n := svc.Prune(); n != 0 {
		t.Fatalf("expected watched screen to survive, pruned %d", n)
	}
	if _, err := svc.Get(ctx, sc.ID()); err != nil {
		t.Fatalf("watched screen gone: %v", err)
	}

	unsubscribe()
	now = now.Add(11 * time.Minute)

	if n := svc.Prune(); n != 1 {
		t.Fatalf("expected screen pruned once the page left, got %d", n)
	}
}

func TestServicePruneDisabledWithoutTTL(t *testing.T) {
	svc := NewService(nopBackend{}, persona.NewMemoryStore(persona.Seed()), Options{})
	svc.Create(context.Background())
	svc.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	if n := svc.Prune(); n != 0 {
		t.Fatalf("expected nothing pruned, got %d", n)
	}
}

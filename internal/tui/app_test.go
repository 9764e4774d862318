package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/screen"
)

type stubBackend struct {
	asks []qa.AskRequest
}

func (s *stubBackend) Upload(_ context.Context, file qa.File) (qa.UploadResult, error) {
	return qa.UploadResult{SessionID: "abc", Filename: file.Name}, nil
}

func (s *stubBackend) Ask(_ context.Context, ask qa.AskRequest) (qa.Answer, error) {
	s.asks = append(s.asks, ask)
	return qa.Answer{Answer: "The conclusion is X."}, nil
}

func newTestModel(b screen.Backend) Model {
	personas := persona.NewMemoryStore(persona.Seed())
	sc := screen.New("tui", b, personas, persona.Default)
	m := NewModel(sc, personas, nil)
	m.readFile = func(path string) ([]byte, error) {
		if path == "missing.pdf" {
			return nil, errors.New("no such file")
		}
		return []byte("%PDF-1.4"), nil
	}
	return m
}

// run applies msg and executes the resulting command once, feeding its result back.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if out := cmd(); out != nil {
		if _, ok := out.(actionDoneMsg); ok {
			next, _ = m.Update(out)
			m = next.(Model)
		}
	}
	return m
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestUploadShowsAskPanel(t *testing.T) {
	m := newTestModel(&stubBackend{})
	m.SetFile("/tmp/doc.pdf")

	m = run(t, m, enter)

	if !m.view.ShowAskPanel || m.view.Filename != "doc.pdf" {
		t.Fatalf("expected ask panel for doc.pdf, got %+v", m.view)
	}
	if !strings.Contains(m.View(), "2. Ask a Question") {
		t.Fatal("expected ask panel to render")
	}
}

func TestUnreadableFileStaysLocal(t *testing.T) {
	m := newTestModel(&stubBackend{})
	m.SetFile("missing.pdf")

	m = run(t, m, enter)

	if m.localErr == "" {
		t.Fatal("expected local read error")
	}
	if m.view.ShowAskPanel {
		t.Fatal("no session expected")
	}
}

func TestEmptyPathShowsValidation(t *testing.T) {
	m := newTestModel(&stubBackend{})

	m = run(t, m, enter)

	if m.view.Error != screen.MsgSelectFile {
		t.Fatalf("unexpected error %q", m.view.Error)
	}
}

func TestTabStaysOnFileUntilSession(t *testing.T) {
	m := newTestModel(&stubBackend{})

	m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})

	if m.focus != fieldFile {
		t.Fatalf("expected focus to stay on file field, got %d", m.focus)
	}
}

func TestAskWithSkepticalPersona(t *testing.T) {
	b := &stubBackend{}
	m := newTestModel(b)
	m.SetFile("doc.pdf")
	m = run(t, m, enter)

	m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m.questionInput.SetValue("Is it true?")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.view.Persona != "skeptical" {
		t.Fatalf("expected skeptical, got %s", m.view.Persona)
	}

	m = run(t, m, enter)

	if len(b.asks) != 1 || b.asks[0].Persona != "skeptical" || b.asks[0].Question != "Is it true?" {
		t.Fatalf("unexpected asks %+v", b.asks)
	}
	if !m.view.ShowAnswer || !strings.Contains(m.View(), "The conclusion is X.") {
		t.Fatal("expected answer to render")
	}
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/screen"
)

type field int

const (
	fieldFile field = iota
	fieldQuestion
	fieldPersona
	fieldCount
)

// HealthChecker reports the backend's status line.
type HealthChecker interface {
	Health(ctx context.Context) (qa.Status, error)
}

type viewMsg screen.View

type actionDoneMsg struct{ err error }

type healthMsg struct {
	message string
	err     error
}

// Model is the terminal rendition of the upload-then-ask screen.
type Model struct {
	screen   *screen.Screen
	personas persona.Store
	health   HealthChecker
	updates  <-chan screen.View
	stop     func()

	view          screen.View
	fileInput     textinput.Model
	questionInput textinput.Model
	spinner       spinner.Model
	focus         field
	localErr      string // file read errors, never sent to the screen
	backendStatus string
	width         int

	readFile func(string) ([]byte, error)
}

func NewModel(sc *screen.Screen, personas persona.Store, health HealthChecker) Model {
	fi := textinput.New()
	fi.Placeholder = "path/to/document.pdf"
	fi.CharLimit = 500
	fi.Focus()

	qi := textinput.New()
	qi.Placeholder = "e.g., What is the main conclusion of the document?"
	qi.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	updates, stop := sc.Subscribe()

	return Model{
		screen:        sc,
		personas:      personas,
		health:        health,
		updates:       updates,
		stop:          stop,
		view:          sc.View(),
		fileInput:     fi,
		questionInput: qi,
		spinner:       sp,
		width:         100,
		readFile:      os.ReadFile,
	}
}

// SetFile prefills the file path input.
func (m *Model) SetFile(path string) {
	m.fileInput.SetValue(path)
	m.fileInput.CursorEnd()
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForView(m.updates)}
	if m.health != nil {
		cmds = append(cmds, checkHealth(m.health))
	}
	return tea.Batch(cmds...)
}

func waitForView(updates <-chan screen.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-updates
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

func checkHealth(h HealthChecker) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		status, err := h.Health(ctx)
		return healthMsg{message: status.Message, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case viewMsg:
		m.view = screen.View(msg)
		return m, waitForView(m.updates)

	case actionDoneMsg:
		m.view = m.screen.View()
		if !m.view.ShowAskPanel && m.focus != fieldFile {
			m.setFocus(fieldFile)
		}
		return m, nil

	case healthMsg:
		if msg.err != nil {
			m.backendStatus = "backend unreachable"
		} else {
			m.backendStatus = msg.message
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.stop()
		return m, tea.Quit

	case "tab":
		m.setFocus(m.nextField(1))
		return m, nil

	case "shift+tab":
		m.setFocus(m.nextField(-1))
		return m, nil

	case "enter":
		switch m.focus {
		case fieldFile:
			return m.startUpload()
		default:
			return m.startAsk()
		}
	}

	if m.focus == fieldPersona {
		switch msg.String() {
		case "left", "h":
			m.cyclePersona(-1)
		case "right", "l", " ":
			m.cyclePersona(1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldFile:
		m.fileInput, cmd = m.fileInput.Update(msg)
	case fieldQuestion:
		m.questionInput, cmd = m.questionInput.Update(msg)
	}
	return m, cmd
}

func (m Model) startUpload() (tea.Model, tea.Cmd) {
	m.localErr = ""
	var file qa.File
	if path := strings.TrimSpace(m.fileInput.Value()); path != "" {
		data, err := m.readFile(path)
		if err != nil {
			m.localErr = fmt.Sprintf("Could not read %s: %v", path, err)
			return m, nil
		}
		file = qa.File{Name: filepath.Base(path), Data: data}
	}

	sc := m.screen
	return m, func() tea.Msg {
		return actionDoneMsg{err: sc.UploadFile(context.Background(), file)}
	}
}

func (m Model) startAsk() (tea.Model, tea.Cmd) {
	m.localErr = ""
	m.screen.SetQuestion(m.questionInput.Value())

	sc := m.screen
	return m, func() tea.Msg {
		err := sc.Ask(context.Background())
		if errors.Is(err, screen.ErrBusy) {
			return actionDoneMsg{}
		}
		return actionDoneMsg{err: err}
	}
}

func (m *Model) cyclePersona(step int) {
	next := persona.Next(m.personas, m.view.Persona, step)
	if err := m.screen.SelectPersona(next.ID); err == nil {
		m.view = m.screen.View()
	}
}

// nextField skips the ask panel fields until a session exists.
func (m Model) nextField(step int) field {
	if !m.view.ShowAskPanel {
		return fieldFile
	}
	return field((int(m.focus) + step + int(fieldCount)) % int(fieldCount))
}

func (m *Model) setFocus(f field) {
	m.focus = f
	m.fileInput.Blur()
	m.questionInput.Blur()
	switch f {
	case fieldFile:
		m.fileInput.Focus()
	case fieldQuestion:
		m.questionInput.Focus()
	}
}

func (m Model) View() string {
	var b strings.Builder
	v := m.view

	b.WriteString(titleStyle.Render("Offline PDF Q&A Assistant"))
	if m.backendStatus != "" {
		b.WriteString(" " + dimStyle.Render(m.backendStatus))
	}
	b.WriteString("\n\n")

	// Step 1
	upload := buttonStyle.Render(v.UploadLabel)
	if v.Loading && !v.ShowAskPanel {
		upload = m.spinner.View() + " " + disabledStyle.Render(v.UploadLabel)
	}
	step1 := headerStyle.Render("1. Upload Your PDF") + "\n" +
		m.focusMark(fieldFile) + m.fileInput.View() + "  " + upload
	if v.ShowAskPanel {
		step1 += "\n" + okStyle.Render("✔ Successfully processed: ") + lipgloss.NewStyle().Bold(true).Render(v.Filename)
		if v.Status != "" {
			step1 += "\n" + dimStyle.Render(v.Status)
		}
	}
	b.WriteString(panelStyle.Width(m.panelWidth()).Render(step1))
	b.WriteString("\n")

	// Step 2
	if v.ShowAskPanel {
		ask := buttonStyle.Render(v.AskLabel)
		if v.AskDisabled {
			ask = m.spinner.View() + " " + disabledStyle.Render(v.AskLabel)
		}
		step2 := headerStyle.Render("2. Ask a Question") + "\n" +
			m.focusMark(fieldQuestion) + m.questionInput.View() + "\n" +
			m.focusMark(fieldPersona) + "Response Persona: " + m.renderPersonas() + "  " + ask
		b.WriteString(panelStyle.Width(m.panelWidth()).Render(step2))
		b.WriteString("\n")
	}

	if m.localErr != "" {
		b.WriteString(errorStyle.Render(m.localErr) + "\n")
	}
	if v.Error != "" {
		b.WriteString(errorStyle.Render(v.Error) + "\n")
	}
	if v.ShowAnswer {
		b.WriteString(answerStyle.Width(m.panelWidth()).Render(headerStyle.Render("Answer:") + "\n" + v.Answer))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab: next field • enter: submit • ←/→: persona • esc: quit"))
	return b.String()
}

func (m Model) renderPersonas() string {
	items := m.personas.List()
	parts := make([]string, 0, len(items))
	for _, p := range items {
		if p.ID == m.view.Persona {
			parts = append(parts, selectedStyle.Render(p.Label))
		} else {
			parts = append(parts, dimStyle.Render(p.Label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) focusMark(f field) string {
	if m.focus == f {
		return focusStyle.Render("▸ ")
	}
	return "  "
}

func (m Model) panelWidth() int {
	if m.width < 40 {
		return 40
	}
	return m.width - 4
}

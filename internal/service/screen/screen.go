package screen

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/backend"
)

// User-facing messages shown in the error region.
const (
	MsgSelectFile   = "Please select a file first."
	MsgAskNeedsBoth = "Please upload a document and ask a question."
	MsgUploadFailed = "Failed to upload file."
	MsgAskFailed    = "Failed to get an answer."
)

var (
	ErrNoFile          = errors.New("no file selected")
	ErrAskPrecondition = errors.New("session and question are required")
	ErrBusy            = errors.New("action disabled while a request is in flight")
	ErrUnknownPersona  = errors.New("unknown persona")
)

// Backend is the subset of the PDF Q&A backend a screen calls.
type Backend interface {
	Upload(ctx context.Context, file qa.File) (qa.UploadResult, error)
	Ask(ctx context.Context, ask qa.AskRequest) (qa.Answer, error)
}

// Screen holds the state of one upload-then-ask screen.
type Screen struct {
	id       string
	backend  Backend
	personas persona.Store

	mu       sync.Mutex
	file     qa.File
	session  *qa.Session
	question string
	persona  string
	answer   string
	errMsg   string
	loading  bool
	subs     map[int]chan View
	nextSub  int
}

// New creates a screen preselecting defaultPersona.
func New(id string, b Backend, personas persona.Store, defaultPersona string) *Screen {
	if _, ok := personas.FindByID(defaultPersona); !ok {
		defaultPersona = persona.Default
	}
	return &Screen{
		id:       id,
		backend:  b,
		personas: personas,
		persona:  defaultPersona,
		subs:     make(map[int]chan View),
	}
}

// ID returns the screen identifier.
func (s *Screen) ID() string {
	return s.id
}

// SelectFile replaces the pending file. A zero File clears the selection.
func (s *Screen) SelectFile(file qa.File) {
	s.mu.Lock()
	s.file = file
	s.mu.Unlock()
	s.publish()
}

// SetQuestion updates the question text.
func (s *Screen) SetQuestion(question string) {
	s.mu.Lock()
	s.question = question
	s.mu.Unlock()
	s.publish()
}

// SelectPersona switches the response tone for subsequent asks.
func (s *Screen) SelectPersona(id string) error {
	if _, ok := s.personas.FindByID(id); !ok {
		return ErrUnknownPersona
	}
	s.mu.Lock()
	s.persona = id
	s.mu.Unlock()
	s.publish()
	return nil
}

// Upload sends the selected file to the backend and starts a new session.
func (s *Screen) Upload(ctx context.Context) error {
	return s.upload(ctx, nil)
}

// UploadFile selects file and uploads it. A busy screen keeps its current selection.
func (s *Screen) UploadFile(ctx context.Context, file qa.File) error {
	return s.upload(ctx, &file)
}

func (s *Screen) upload(ctx context.Context, selected *qa.File) error {
	s.mu.Lock()
	if s.loading && s.session == nil {
		s.mu.Unlock()
		return ErrBusy
	}
	if selected != nil {
		s.file = *selected
	}
	if s.file.Empty() {
		s.errMsg = MsgSelectFile
		s.mu.Unlock()
		s.publish()
		return ErrNoFile
	}

	file := s.file
	s.loading = true
	s.errMsg = ""
	s.answer = ""
	s.session = nil
	s.mu.Unlock()
	s.publish()

	result, err := s.backend.Upload(ctx, file)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = failureMessage(err, MsgUploadFailed)
	} else {
		s.session = &qa.Session{
			ID:        result.SessionID,
			Filename:  result.Filename,
			Message:   result.Message,
			CreatedAt: time.Now().UTC(),
		}
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		log.Printf("[screen] upload failed for screen=%s file=%s: %v", s.id, file.Name, err)
		return err
	}
	log.Printf("[screen] screen=%s bound to session=%s", s.id, result.SessionID)
	return nil
}

// Ask submits the current question with the selected persona.
func (s *Screen) Ask(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.session == nil || strings.TrimSpace(s.question) == "" {
		s.errMsg = MsgAskNeedsBoth
		s.mu.Unlock()
		s.publish()
		return ErrAskPrecondition
	}

	req := qa.AskRequest{
		SessionID: s.session.ID,
		Question:  s.question,
		Persona:   s.persona,
	}
	s.loading = true
	s.errMsg = ""
	s.answer = ""
	s.mu.Unlock()
	s.publish()

	answer, err := s.backend.Ask(ctx, req)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = failureMessage(err, MsgAskFailed)
	} else {
		s.answer = answer.Answer
	}
	s.mu.Unlock()
	s.publish()

	if err != nil {
		log.Printf("[screen] ask failed for screen=%s session=%s: %v", s.id, req.SessionID, err)
		return err
	}
	return nil
}

// View returns the current rendering state.
func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe streams the latest View after each change. The returned func unsubscribes.
func (s *Screen) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.viewLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Active reports whether a page is still watching the screen.
func (s *Screen) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

func (s *Screen) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subs) == 0 {
		return
	}
	view := s.viewLocked()
	for _, ch := range s.subs {
		// Subscribers only care about the newest state.
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
}

func failureMessage(err error, fallback string) string {
	var remote *backend.RemoteError
	if errors.As(err, &remote) && remote.Detail != "" {
		return remote.Detail
	}
	return fallback
}

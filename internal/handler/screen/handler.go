package screen

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/qa"
	screenService "github.com/zhouzirui/pdf-qa/frontend/internal/service/screen"
	"github.com/zhouzirui/pdf-qa/frontend/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the upload-then-ask screen as HTML and JSON.
type Handler struct {
	screens   *screenService.Service
	personas  persona.Store
	maxUpload int64
	page      *template.Template
	upgrader  websocket.Upgrader
}

// New 创建screen处理器
func New(screens *screenService.Service, personas persona.Store, maxUpload int64) *Handler {
	return &Handler{
		screens:   screens,
		personas:  personas,
		maxUpload: maxUpload,
		page:      template.Must(template.ParseFS(templateFS, "templates/screen.html")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleNewScreen)
	r.Route("/screens/{screenID}", func(sr chi.Router) {
		sr.Get("/", h.handlePage)
		sr.Post("/upload", h.handleUploadForm)
		sr.Post("/ask", h.handleAskForm)
	})
}

// RegisterAPIRoutes 注册JSON/实时推送路由
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Post("/screens", h.handleCreate)
	r.Route("/screens/{screenID}", func(sr chi.Router) {
		sr.Get("/", h.handleView)
		sr.Post("/upload", h.handleUploadAPI)
		sr.Post("/ask", h.handleAskAPI)
		sr.Get("/ws", h.handleWebSocket)
		sr.Get("/events", h.handleEvents)
	})
}

type pageData struct {
	View     screenService.View
	Personas []persona.Persona

	UploadFailed string
	AskFailed    string
}

func (h *Handler) handleNewScreen(w http.ResponseWriter, r *http.Request) {
	sc := h.screens.Create(r.Context())
	http.Redirect(w, r, "/screens/"+sc.ID(), http.StatusSeeOther)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if utils.WantsJSON(r) {
		h.handleView(w, r)
		return
	}

	sc, err := h.screens.Get(r.Context(), chi.URLParam(r, "screenID"))
	if err != nil {
		// Expired or unknown screens start over, like a page reload.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, pageData{
		View:         sc.View(),
		Personas:     h.personas.List(),
		UploadFailed: screenService.MsgUploadFailed,
		AskFailed:    screenService.MsgAskFailed,
	}); err != nil {
		log.Printf("[screen] failed to render page for screen=%s: %v", sc.ID(), err)
	}
}

func (h *Handler) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if status, msg := h.upload(w, r, sc); status >= http.StatusBadRequest {
		utils.RespondError(w, status, msg)
		return
	}
	http.Redirect(w, r, "/screens/"+sc.ID(), http.StatusSeeOther)
}

func (h *Handler) handleAskForm(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if status, msg := h.ask(w, r, sc); status >= http.StatusBadRequest {
		utils.RespondError(w, status, msg)
		return
	}
	http.Redirect(w, r, "/screens/"+sc.ID(), http.StatusSeeOther)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sc := h.screens.Create(r.Context())
	utils.RespondJSON(w, http.StatusCreated, sc.View())
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, sc.View())
}

func (h *Handler) handleUploadAPI(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	status, msg := h.upload(w, r, sc)
	h.respondAction(w, sc, status, msg)
}

func (h *Handler) handleAskAPI(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	status, msg := h.ask(w, r, sc)
	h.respondAction(w, sc, status, msg)
}

func (h *Handler) respondAction(w http.ResponseWriter, sc *screenService.Screen, status int, msg string) {
	if status >= http.StatusBadRequest {
		utils.RespondError(w, status, msg)
		return
	}
	utils.RespondJSON(w, status, sc.View())
}

// upload reads the multipart "file" field and runs the screen's upload action.
// Validation and backend failures land in the screen's error region, not the status.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request, sc *screenService.Screen) (int, string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))

	var selected qa.File
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
		if err != nil {
			return http.StatusBadRequest, "failed to read uploaded file"
		}
		if int64(len(data)) > h.maxUpload {
			return http.StatusRequestEntityTooLarge, "file exceeds upload limit"
		}
		selected = qa.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Empty selection; the screen reports it.
	default:
		if isTooLarge(err) {
			return http.StatusRequestEntityTooLarge, "file exceeds upload limit"
		}
		return http.StatusBadRequest, "invalid multipart body"
	}

	// In-flight requests are not aborted when the browser goes away.
	err = sc.UploadFile(context.WithoutCancel(r.Context()), selected)
	if errors.Is(err, screenService.ErrBusy) {
		return http.StatusConflict, err.Error()
	}
	return http.StatusOK, ""
}

// maxAskBody caps question bodies; they carry no files.
const maxAskBody = 1 << 20

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

type askPayload struct {
	Question string `json:"question"`
	Persona  string `json:"persona"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request, sc *screenService.Screen) (int, string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBody)

	var payload askPayload
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			if isTooLarge(err) {
				return http.StatusRequestEntityTooLarge, "request body too large"
			}
			return http.StatusBadRequest, "invalid request body"
		}
	} else {
		// Browsers post either urlencoded forms or FormData (multipart).
		if err := r.ParseMultipartForm(maxAskBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			if isTooLarge(err) {
				return http.StatusRequestEntityTooLarge, "request body too large"
			}
			return http.StatusBadRequest, "invalid form body"
		}
		payload.Question = r.PostFormValue("question")
		payload.Persona = r.PostFormValue("persona")
	}

	if payload.Persona != "" {
		if err := sc.SelectPersona(payload.Persona); err != nil {
			return http.StatusBadRequest, "persona not found"
		}
	}
	sc.SetQuestion(payload.Question)

	err := sc.Ask(context.WithoutCancel(r.Context()))
	if errors.Is(err, screenService.ErrBusy) {
		return http.StatusConflict, err.Error()
	}
	return http.StatusOK, ""
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*screenService.Screen, bool) {
	sc, err := h.screens.Get(r.Context(), chi.URLParam(r, "screenID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sc, true
}

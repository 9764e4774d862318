package screen

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	screenService "github.com/zhouzirui/pdf-qa/frontend/internal/service/screen"
	"github.com/zhouzirui/pdf-qa/frontend/pkg/utils"
)

const (
	writeWait       = 10 * time.Second
	keepAlivePeriod = 15 * time.Second
)

type outgoingMessage struct {
	Type      string             `json:"type"`
	ScreenID  string             `json:"screenId"`
	Data      screenService.View `json:"data"`
	Timestamp int64              `json:"timestamp"`
}

// handleWebSocket pushes every View change of a screen to the browser.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for screen=%s: %v", sc.ID(), err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := sc.Subscribe()
	defer unsubscribe()

	// The client never sends anything meaningful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAlivePeriod)
	defer ticker.Stop()

	log.Printf("[ws] opened view stream for screen=%s", sc.ID())
	for {
		select {
		case <-closed:
			log.Printf("[ws] closed view stream for screen=%s", sc.ID())
			return
		case view, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outgoingMessage{
				Type:      "view",
				ScreenID:  sc.ID(),
				Data:      view,
				Timestamp: time.Now().UnixMilli(),
			}); err != nil {
				log.Printf("[ws] write failed for screen=%s: %v", sc.ID(), err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// handleEvents is the Server-Sent Events twin of handleWebSocket.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, unsubscribe := sc.Subscribe()
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(keepAlivePeriod)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-updates:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, "view", view); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}

package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readLimit     = 4 << 10
	readDeadline  = 120 * time.Second // extended by every pong
	writeDeadline = 5 * time.Second
	pingInterval  = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// authEvents streams auth-state events of the authenticated user. The token
// comes from the "token" query parameter or the Authorization header, since
// browsers cannot set headers on websocket requests.
func (app *application) authEvents(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	user, err := app.authService.CurrentUser(r.Context(), token)
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid or expired access token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.log.Errorf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := app.notifier.Subscribe(user.ID)
	defer unsubscribe()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	// Clients never send anything; reading only drives pong and close frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				_ = writeClose(conn, websocket.CloseGoingAway, "unsubscribed")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) error {
	return conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeDeadline),
	)
}

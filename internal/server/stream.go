package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// fieldMessage is sent for GET /fields/{name} and on every stream update.
type fieldMessage struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// stream pushes one field's values to one WebSocket connection. Only the
// latest undelivered value is kept.
type stream struct {
	id      string
	field   string
	conn    *websocket.Conn
	updates chan any
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

func newStream(id string, conn *websocket.Conn, logger *slog.Logger) *stream {
	return &stream{
		id:      id,
		conn:    conn,
		updates: make(chan any, 1),
		done:    make(chan struct{}),
		logger:  logger.With("conn_id", id),
	}
}

// offer replaces any pending value with v. It is called from the loop
// goroutine only.
func (st *stream) offer(v any) {
	for {
		select {
		case st.updates <- v:
			return
		default:
		}
		select {
		case <-st.updates:
		default:
		}
	}
}

func (st *stream) writeLoop() {
	for {
		select {
		case v := <-st.updates:
			_ = st.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := st.conn.WriteJSON(fieldMessage{Field: st.field, Value: v}); err != nil {
				st.logger.Debug("stream write failed", "error", err)
				st.close(websocket.CloseInternalServerErr)
				return
			}
		case <-st.done:
			return
		}
	}
}

// readLoop discards client frames and returns when the connection ends.
func (st *stream) readLoop() {
	for {
		if _, _, err := st.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (st *stream) close(code int) {
	st.once.Do(func() {
		close(st.done)
		msg := websocket.FormatCloseMessage(code, "")
		_ = st.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = st.conn.Close()
	})
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	ferrors "github.com/vango-dev/fastctx/internal/errors"
	"github.com/vango-dev/fastctx/internal/form"
	"github.com/vango-dev/fastctx/pkg/fastctx"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type fieldUpdate struct {
	Value json.RawMessage `json:"value"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var fe *ferrors.Error
	if errors.As(err, &fe) {
		resp.Code = fe.Code
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, resp)
}

// statusFor maps store errors to HTTP statuses. notFound is used for an
// unknown field name.
func statusFor(err error, notFound int) int {
	switch {
	case errors.Is(err, fastctx.ErrUnknownField):
		return notFound
	case errors.Is(err, fastctx.ErrFieldType):
		return http.StatusBadRequest
	case errors.Is(err, fastctx.ErrStaleBinding),
		errors.Is(err, fastctx.ErrNoActiveScope),
		errors.Is(err, ErrLoopClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.State()
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusNotFound), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var msg fieldMessage
	var opErr error
	err := s.loop.Do(func() {
		fb, err := fastctx.BindField(s.ctx, s.form, name)
		if err != nil {
			opErr = err
			return
		}
		defer fb.Close()
		msg.Field = fb.Name()
		msg.Value, opErr = fb.Get()
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusNotFound), err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handlePutField(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body fieldUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body.Value) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New(`missing "value"`))
		return
	}
	var value any
	if err := json.Unmarshal(body.Value, &value); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var state form.Person
	var opErr error
	err := s.loop.Do(func() {
		fb, err := fastctx.BindField(s.ctx, s.form, name)
		if err != nil {
			opErr = err
			return
		}
		defer fb.Close()
		if opErr = fb.Set(value); opErr == nil {
			state = s.scope.Store().Get()
		}
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}

	s.logger.Debug("field updated", "field", name)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := fastctx.SelectField[form.Person](name); err != nil {
		s.writeError(w, statusFor(err, http.StatusNotFound), err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	st := newStream(uuid.NewString(), conn, s.logger)
	var fb *fastctx.FieldBinding[form.Person]
	var bindErr error
	err = s.loop.Do(func() {
		fb, bindErr = fastctx.BindField(s.ctx, s.form, name, fastctx.OnChange(st.offer))
		if bindErr != nil {
			return
		}
		v, err := fb.Get()
		if err != nil {
			bindErr = err
			return
		}
		st.offer(v)
	})
	if err == nil {
		err = bindErr
	}
	if err != nil {
		st.logger.Warn("stream bind failed", "error", err)
		st.close(websocket.CloseTryAgainLater)
		return
	}

	st.field = fb.Name()
	s.track(st)
	st.logger.Debug("stream opened", "field", st.field)

	go st.writeLoop()
	st.readLoop()

	st.close(websocket.CloseNormalClosure)
	s.untrack(st)
	// The scope may already be closed, in which case it released fb.
	_ = s.loop.Do(fb.Close)
	st.logger.Debug("stream closed", "field", st.field)
}

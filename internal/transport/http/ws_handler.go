package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/auth"
)

// WSHandler drives one quiz session per websocket connection. The client
// dispatches the session commands; the handler streams back session
// snapshots after every mutation.
type WSHandler struct {
	service  *app.QuizService
	auth     *auth.Service
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, authService *auth.Service, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		auth:    authService,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Selected   int    `json:"selectedOption"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type answerResult struct {
	QuestionID   string `json:"questionId"`
	Correct      bool   `json:"correct"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correctCount"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into a session.
// Identity comes from a bearer token (?token=) or, for development and
// tests, a plain ?userId= parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	userID := r.URL.Query().Get("userId")
	if token := r.URL.Query().Get("token"); token != "" && h.auth != nil {
		user, err := h.auth.Identify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID = user.ID
	}
	if userID == "" {
		http.Error(w, "missing token or userId", http.StatusBadRequest)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session, err := h.service.LoadQuiz(r.Context(), sessionID, userID, quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.CloseSession(sessionID)

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, sessionID, session, inbound, send, writerDone)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, sessionID string, session *app.Session, inbound inboundMessage, send chan<- outboundMessage[any], writerDone <-chan struct{}) {
	// The writer can die on a broken connection while reads still succeed;
	// never block dispatch on a full send buffer.
	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	fail := func(err error) {
		emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	switch inbound.Type {
	case "start":
		if err := session.Start(); err != nil {
			fail(err)
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
			return
		}
		record, err := session.Answer(payload.QuestionID, payload.Selected)
		if err != nil {
			fail(err)
			return
		}
		emit(outboundMessage[any]{Type: "answerResult", Payload: answerResult{
			QuestionID:   record.QuestionID,
			Correct:      record.Correct,
			Score:        session.Score(),
			CorrectCount: session.CorrectCount(),
		}})
	case "next":
		session.Next()
	case "previous":
		session.Previous()
	case "goto":
		var payload gotoPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid goto payload"}})
			return
		}
		session.GoToQuestion(payload.Index)
	case "pause":
		session.Pause()
	case "resume":
		session.Resume()
	case "submit":
		snapshot, err := h.service.Submit(r.Context(), sessionID)
		if err != nil {
			fail(err)
			return
		}
		emit(outboundMessage[any]{Type: "results", Payload: snapshot})
	case "results":
		snapshot, err := h.service.Results(sessionID)
		if err != nil {
			fail(err)
			return
		}
		emit(outboundMessage[any]{Type: "results", Payload: snapshot})
	case "reset":
		session.Reset()
	default:
		emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
	}
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewQuizService(
		memory.NewSessionStore(),
		quizRepo,
		quizRepo,
		memory.NewAttemptStore(),
		memory.NewLeaderboard(),
		nil,
	)
	wsHandler := NewWSHandler(service, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil drains interleaved session snapshots until a message of the
// wanted type arrives.
func readUntil(conn *websocket.Conn, t *testing.T, want string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error message: %v", msg.Payload)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
	t.Fatalf("never received %q", want)
	return nil
}

func send(conn *websocket.Conn, t *testing.T, msgType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dialWS(t, server, "quizId=quiz-1&userId=u1")

	// The initial snapshot arrives right after the quiz is loaded.
	snapshot := readUntil(conn, t, "session")
	if snapshot["status"] != "ready" {
		t.Fatalf("expected ready session, got %v", snapshot["status"])
	}

	send(conn, t, "start", nil)
	snapshot = readUntil(conn, t, "session")
	if snapshot["status"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", snapshot["status"])
	}

	send(conn, t, "answer", map[string]any{"questionId": "q1", "selectedOption": 1})
	result := readUntil(conn, t, "answerResult")
	if result["correct"] != true {
		t.Fatalf("expected correct answer, got %v", result)
	}

	send(conn, t, "submit", nil)
	results := readUntil(conn, t, "results")
	if results["score"] != float64(50) {
		t.Fatalf("expected score 50, got %v", results["score"])
	}
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server := newTestServer(t)
	conn := dialWS(t, server, "quizId=no-such&userId=u1")

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws?userId=u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without quizId, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/ws?quizId=quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without identity, got %d", resp.StatusCode)
	}
}

func TestDispatchDoesNotBlockWhenWriterGone(t *testing.T) {
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	service := app.NewQuizService(
		memory.NewSessionStore(),
		quizRepo,
		quizRepo,
		memory.NewAttemptStore(),
		memory.NewLeaderboard(),
		nil,
	)
	handler := NewWSHandler(service, nil, nil)

	session, err := service.LoadQuiz(context.Background(), "s1", "u1", "quiz-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := service.Start("s1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Dead writer, nobody draining the channel.
	send := make(chan outboundMessage[any])
	writerDone := make(chan struct{})
	close(writerDone)

	req := httptest.NewRequest("GET", "/ws", nil)
	inbound := inboundMessage{
		Type:    "answer",
		Payload: json.RawMessage(`{"questionId":"q1","selectedOption":1}`),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.dispatch(req, "s1", session, inbound, send, writerDone)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("dispatch blocked on a dead writer")
	}
}

func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:         "quiz-1",
			Title:      "Arithmetic warmup",
			Difficulty: domain.DifficultyBeginner,
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, Correct: 1},
				{ID: "q2", Prompt: "What is 3 * 3?", Options: []string{"6", "9"}, Correct: 1},
			},
		},
	}
}

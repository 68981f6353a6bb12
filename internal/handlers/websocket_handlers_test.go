package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"collabcode/internal/ai"
	"collabcode/internal/auth"
	"collabcode/internal/config"
	"collabcode/internal/models"
	"collabcode/internal/ws"

	"github.com/gorilla/websocket"
)

const testProjectID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

type fakeStore struct {
	projects map[string]*models.Project
	users    map[string]*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[string]*models.Project),
		users:    make(map[string]*models.User),
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user := &models.User{ID: "u-" + req.Email, Email: req.Email, CreatedAt: time.Now()}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return nil, nil
}

func (f *fakeStore) CreateProject(ctx context.Context, name, ownerID string) (*models.Project, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) ListUserProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) AddProjectUsers(ctx context.Context, projectID string, userIDs []string) (*models.Project, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) UpdateFileTree(ctx context.Context, projectID string, fileTree json.RawMessage) error {
	return errors.New("not implemented")
}

func (f *fakeStore) Close() error { return nil }

type fakeGenerator struct {
	res *models.AIResponse
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (*models.AIResponse, error) {
	return f.res, f.err
}

type testEnv struct {
	srv         *httptest.Server
	authService *auth.Service
	store       *fakeStore
}

func newTestEnv(t *testing.T, gen ai.Generator) *testEnv {
	t.Helper()

	store := newFakeStore()
	store.projects[testProjectID] = &models.Project{ID: testProjectID, Name: "demo"}

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: []byte("test-secret"), ExpiresIn: time.Hour},
	}
	authService := auth.NewService(store, cfg)

	registry := ws.NewRegistry()
	router := ws.NewRouter(registry)
	if gen != nil {
		relay := ai.NewRelay(gen, router)
		router.AttachRelay(relay)
	}

	wsHandlers := NewWebSocketHandlers(authService, registry, router)
	srv := httptest.NewServer(http.HandlerFunc(wsHandlers.HandleWebSocket))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, authService: authService, store: store}
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	resp, err := e.authService.Register(context.Background(), &models.RegisterRequest{
		Email:    email,
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp.Token
}

func (e *testEnv) dial(t *testing.T, projectID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "?projectId=" + projectID + "&token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("event did not decode: %v", err)
	}
	return ev
}

func sendEvent(t *testing.T, conn *websocket.Conn, ev models.Event) {
	t.Helper()
	if err := conn.WriteJSON(ev); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func TestHandshakeRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "alice@example.com")

	cases := []struct {
		name       string
		projectID  string
		token      string
		wantStatus int
	}{
		{"invalid project id", "not-a-uuid", token, http.StatusBadRequest},
		{"project not found", "1b671a64-40d5-491e-99b0-da01ff1f3341", token, http.StatusNotFound},
		{"missing token", testProjectID, "", http.StatusUnauthorized},
		{"invalid token", testProjectID, "bogus.token", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "?projectId=" + tc.projectID + "&token=" + tc.token
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				t.Fatal("Dial() should be refused")
			}
			if resp == nil || resp.StatusCode != tc.wantStatus {
				status := 0
				if resp != nil {
					status = resp.StatusCode
				}
				t.Errorf("handshake status = %d, want %d", status, tc.wantStatus)
			}
		})
	}
}

func TestChatBroadcastReachesAllMembersIncludingSender(t *testing.T) {
	env := newTestEnv(t, nil)

	connA := env.dial(t, testProjectID, env.token(t, "alice@example.com"))
	connB := env.dial(t, testProjectID, env.token(t, "bob@example.com"))

	sendEvent(t, connA, models.Event{
		Type:    models.EventProjectMessage,
		Message: "hello",
		Sender:  models.HumanSender("u-alice@example.com", "alice@example.com"),
	})

	for name, conn := range map[string]*websocket.Conn{"sender": connA, "other": connB} {
		ev := readEvent(t, conn)
		if ev.Type != models.EventProjectMessage {
			t.Errorf("%s got event type %v, want project-message", name, ev.Type)
		}
		if ev.Message != "hello" {
			t.Errorf("%s got message %q, want hello", name, ev.Message)
		}
		if ev.Timestamp == 0 {
			t.Errorf("%s got unstamped event", name)
		}
	}
}

func TestDirectedMessageProducesAssistantFollowUp(t *testing.T) {
	gen := &fakeGenerator{res: &models.AIResponse{Text: "here is a script"}}
	env := newTestEnv(t, gen)

	conn := env.dial(t, testProjectID, env.token(t, "alice@example.com"))

	sendEvent(t, conn, models.Event{
		Type:    models.EventProjectMessage,
		Message: "@ai generate a hello world script",
		Sender:  models.HumanSender("u-alice@example.com", "alice@example.com"),
	})

	// The literal chat message arrives first, the assistant response after.
	first := readEvent(t, conn)
	if first.Sender.Kind == models.SenderAssistant {
		t.Fatal("assistant response arrived before the chat broadcast")
	}
	if first.Message != "@ai generate a hello world script" {
		t.Errorf("first event message = %q, want the literal chat text", first.Message)
	}

	second := readEvent(t, conn)
	if second.Sender.Kind != models.SenderAssistant {
		t.Fatalf("second event sender = %+v, want the assistant", second.Sender)
	}
	var res models.AIResponse
	if err := json.Unmarshal([]byte(second.Message), &res); err != nil {
		t.Fatalf("assistant message is not JSON: %v", err)
	}
	if res.Text == "" {
		t.Error("assistant response has empty text")
	}
}

func TestGenerationFailureSurfacesAsAssistantError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	env := newTestEnv(t, gen)

	conn := env.dial(t, testProjectID, env.token(t, "alice@example.com"))

	sendEvent(t, conn, models.Event{
		Type:    models.EventProjectMessage,
		Message: "@ai do the impossible",
		Sender:  models.HumanSender("u-alice@example.com", "alice@example.com"),
	})

	readEvent(t, conn) // the echoed chat message

	errEvent := readEvent(t, conn)
	if errEvent.Sender.Kind != models.SenderAssistant {
		t.Fatalf("error event sender = %+v, want the assistant", errEvent.Sender)
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(errEvent.Message), &payload); err != nil {
		t.Fatalf("error payload is not JSON: %v", err)
	}
	if payload.Text != "Error: Unable to process AI request" {
		t.Errorf("error text = %q, want the fixed notice", payload.Text)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	env := newTestEnv(t, nil)

	connA := env.dial(t, testProjectID, env.token(t, "alice@example.com"))
	connB := env.dial(t, testProjectID, env.token(t, "bob@example.com"))

	sendEvent(t, connA, models.Event{
		Type:    models.EventProjectMessage,
		Message: "hello",
		Sender:  models.HumanSender("u-alice@example.com", "alice@example.com"),
	})
	msg := readEvent(t, connA)
	readEvent(t, connB)

	// B tries to delete A's message: silently dropped, nothing broadcast.
	sendEvent(t, connB, models.Event{
		Type:      models.EventDeleteMessage,
		Timestamp: msg.Timestamp,
		ProjectID: testProjectID,
		Sender:    models.HumanSender("u-alice@example.com", "alice@example.com"),
	})

	// A deletes its own message: everyone gets the delete broadcast. If the
	// unauthorized delete had produced anything, it would arrive first and
	// fail the assertions below.
	sendEvent(t, connA, models.Event{
		Type:      models.EventDeleteMessage,
		Timestamp: msg.Timestamp,
		ProjectID: testProjectID,
		Sender:    models.HumanSender("u-alice@example.com", "alice@example.com"),
	})

	for name, conn := range map[string]*websocket.Conn{"A": connA, "B": connB} {
		ev := readEvent(t, conn)
		if ev.Type != models.EventDeleteMessage {
			t.Errorf("%s got event type %v, want delete-message", name, ev.Type)
		}
		if ev.Timestamp != msg.Timestamp {
			t.Errorf("%s got delete for %d, want %d", name, ev.Timestamp, msg.Timestamp)
		}
		if ev.Sender.ID != "u-alice@example.com" {
			t.Errorf("%s got delete sender %q, want the message owner", name, ev.Sender.ID)
		}
	}
}

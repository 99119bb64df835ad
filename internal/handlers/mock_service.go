package handlers

import (
	"context"
	"net/http"
	"sync"

	"controlling_motor/internal/models"
	"controlling_motor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockControl records the last call and answers with panel or err.
type mockControl struct {
	mu    sync.Mutex
	panel models.PanelState
	err   error

	calls        []string
	lastID       string
	lastValue    string
	lastDelta    int
	lastOperator int
}

func (m *mockControl) record(ctx context.Context, op, id string) (models.PanelState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	m.lastID = id
	m.lastOperator, _ = service.OperatorFrom(ctx)
	return m.panel, m.err
}

func (m *mockControl) OpenSession(ctx context.Context) (models.PanelState, error) {
	return m.record(ctx, "open", "")
}
func (m *mockControl) CloseSession(ctx context.Context, id string) error {
	_, err := m.record(ctx, "close", id)
	return err
}
func (m *mockControl) SetModel(ctx context.Context, id, model string) (models.PanelState, error) {
	m.lastValue = model
	return m.record(ctx, "model", id)
}
func (m *mockControl) SetSpeed(ctx context.Context, id, raw string) (models.PanelState, error) {
	m.lastValue = raw
	return m.record(ctx, "speed", id)
}
func (m *mockControl) SetAcceleration(ctx context.Context, id, raw string) (models.PanelState, error) {
	m.lastValue = raw
	return m.record(ctx, "acceleration", id)
}
func (m *mockControl) NudgeSpeed(ctx context.Context, id string, delta int) (models.PanelState, error) {
	m.lastDelta = delta
	return m.record(ctx, "nudge", id)
}
func (m *mockControl) Start(ctx context.Context, id string) (models.PanelState, error) {
	return m.record(ctx, "start", id)
}
func (m *mockControl) Stop(ctx context.Context, id string) (models.PanelState, error) {
	return m.record(ctx, "stop", id)
}

type mockMonitoring struct {
	mu     sync.Mutex
	panel  models.PanelState
	err    error
	models []models.Envelope
	gets   int
}

func (m *mockMonitoring) GetPanel(ctx context.Context, id string) (models.PanelState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	return m.panel, m.err
}

func (m *mockMonitoring) Models() []models.Envelope { return m.models }

func (m *mockMonitoring) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type mockEventLog struct {
	resp       []models.MotorEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.MotorEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

type mockRamps struct {
	seq  models.RampSequence
	list []models.RampSequence
	err  error

	panel    models.PanelState
	runErr   error
	lastName string
	lastText string
	lastID   string
}

func (m *mockRamps) SaveSequence(ctx context.Context, name, text string) (models.RampSequence, error) {
	m.lastName, m.lastText = name, text
	return m.seq, m.err
}
func (m *mockRamps) GetSequence(ctx context.Context, name string) (models.RampSequence, error) {
	m.lastName = name
	return m.seq, m.err
}
func (m *mockRamps) ListSequences(ctx context.Context) ([]models.RampSequence, error) {
	return m.list, m.err
}
func (m *mockRamps) RunSequence(ctx context.Context, sessionID, name string) (models.PanelState, error) {
	m.lastID, m.lastName = sessionID, name
	return m.panel, m.runErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

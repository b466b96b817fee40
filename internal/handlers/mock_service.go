package handlers

import (
	"context"

	"ttlock-bridge/internal/models"
	"ttlock-bridge/internal/service"
)

// mockWorkflow is a hand-rolled service.Workflow test double. Each method
// returns the canned fields and counts its calls.
type mockWorkflow struct {
	cfg      models.Config
	msg      string
	err      error
	loadErr  error
	configFn func() (models.Config, error)

	configCalls  int
	fetchCalls   int
	operateCalls int

	lastLockID int64
	lastAction string
	lastPlain  string
	lastSetup  service.SetupParams
}

func (m *mockWorkflow) Config(ctx context.Context) (models.Config, error) {
	m.configCalls++
	if m.configFn != nil {
		return m.configFn()
	}
	return m.cfg, m.loadErr
}

func (m *mockWorkflow) HashPassword(ctx context.Context, plain string) (models.Config, error) {
	m.lastPlain = plain
	return m.cfg, m.err
}

func (m *mockWorkflow) SaveSettings(ctx context.Context, p service.SettingsParams) (models.Config, error) {
	return m.cfg, m.err
}

func (m *mockWorkflow) Register(ctx context.Context, p service.CredentialOverrides) (models.Config, error) {
	return m.cfg, m.err
}

func (m *mockWorkflow) GetToken(ctx context.Context, p service.CredentialOverrides) (models.Config, error) {
	return m.cfg, m.err
}

func (m *mockWorkflow) FetchLocks(ctx context.Context) (models.Config, error) {
	m.fetchCalls++
	return m.cfg, m.err
}

func (m *mockWorkflow) OperateLock(ctx context.Context, lockID int64, action string) (models.Config, error) {
	m.operateCalls++
	m.lastLockID = lockID
	m.lastAction = action
	return m.cfg, m.err
}

func (m *mockWorkflow) QuickSetup(ctx context.Context, p service.SetupParams) (models.Config, string, error) {
	m.lastSetup = p
	return m.cfg, m.msg, m.err
}

type mockEventLog struct {
	events []models.BridgeEvent
	err    error

	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.BridgeEvent, error) {
	m.lastFilter = f
	return m.events, m.err
}

func newTestHandler(wf *mockWorkflow, ev *mockEventLog) *Handler {
	if ev == nil {
		ev = &mockEventLog{}
	}
	return NewHandler(&service.Service{Workflow: wf, EventLog: ev}, nil, "")
}

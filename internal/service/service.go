package service

import (
	"context"
	"time"

	"ttlock-bridge/internal/logger"
	"ttlock-bridge/internal/models"
	"ttlock-bridge/internal/repository"
	"ttlock-bridge/internal/ttlock"
)

// VendorAPI is the slice of the vendor client the workflow needs; tests
// substitute a fake.
type VendorAPI interface {
	RegisterUser(ctx context.Context, baseURL, clientID, clientSecret, username, passwordMD5 string) (ttlock.RegisterResult, error)
	GetAccessToken(ctx context.Context, baseURL, clientID, clientSecret, username, passwordMD5, redirectURI string) (ttlock.TokenResult, error)
	ListLocks(ctx context.Context, baseURL, accessToken string, pageNo, pageSize int) (ttlock.LockList, error)
	OperateLock(ctx context.Context, baseURL, accessToken string, lockID int64, action string) ([]byte, error)
}

// SettingsParams carries operator-supplied application settings. All values
// are stored verbatim after trimming; an empty base URL keeps the stored one.
type SettingsParams struct {
	APIBaseURL   string `json:"api_base_url"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// CredentialOverrides are optional per-request overrides for the register
// and token steps; empty fields preserve stored values.
type CredentialOverrides struct {
	APIBaseURL  string `json:"api_base_url"`
	RedirectURI string `json:"redirect_uri"`
	Username    string `json:"username"`
	PasswordMD5 string `json:"password_md5"`
}

// SetupParams is the fast-path setup input; any subset may be supplied.
// A plaintext password, if given, overrides a supplied digest by re-hashing.
type SetupParams struct {
	APIBaseURL   string `json:"api_base_url"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	PasswordMD5  string `json:"password_md5"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LogFilter narrows journal listings by time range and event type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "" means any type
}

// Workflow is the credential/token lifecycle plus the lock-command proxy.
// Every step persists the record unconditionally, failure paths included, so
// partial progress (e.g. a freshly computed digest) is never lost.
type Workflow interface {
	Config(ctx context.Context) (models.Config, error)
	HashPassword(ctx context.Context, plain string) (models.Config, error)
	SaveSettings(ctx context.Context, p SettingsParams) (models.Config, error)
	Register(ctx context.Context, p CredentialOverrides) (models.Config, error)
	GetToken(ctx context.Context, p CredentialOverrides) (models.Config, error)
	FetchLocks(ctx context.Context) (models.Config, error)
	OperateLock(ctx context.Context, lockID int64, action string) (models.Config, error)
	QuickSetup(ctx context.Context, p SetupParams) (models.Config, string, error)
}

// EventLog exposes the append-only journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.BridgeEvent, error)
}

type Service struct {
	Workflow
	EventLog
}

func NewService(repos *repository.Repository, api VendorAPI, log *logger.Logger) *Service {
	return &Service{
		Workflow: NewWorkflowService(repos.Config, repos.Events, api, log),
		EventLog: NewEventLogService(repos.Events),
	}
}

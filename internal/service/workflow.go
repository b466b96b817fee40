package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ttlock-bridge/internal/logger"
	"ttlock-bridge/internal/models"
	"ttlock-bridge/internal/repository"
	"ttlock-bridge/internal/ttlock"
)

// Step errors surfaced to the API. ErrNoAccessToken is a sentinel the
// handlers map to HTTP 400 on the lock-action route.
var (
	ErrNoAccessToken      = errors.New("No access token")
	errMissingCredentials = errors.New("Missing required fields (client_id, client_secret, username, password_md5).")
	errNoLockSelected     = errors.New("No lock selected")
	errEmptyPassword      = errors.New("password is empty")
)

// WorkflowService orchestrates store and vendor client across the
// credential/token flow. Each step follows the same pattern: load the
// record, apply non-empty overrides, check preconditions, call the vendor,
// fold response fields back in, persist unconditionally, journal the
// outcome.
type WorkflowService struct {
	store  repository.ConfigStore
	events repository.EventRepo
	api    VendorAPI
	log    *logger.Logger
}

func NewWorkflowService(store repository.ConfigStore, events repository.EventRepo, api VendorAPI, log *logger.Logger) *WorkflowService {
	return &WorkflowService{store: store, events: events, api: api, log: log}
}

// Config returns the current record without touching it.
func (s *WorkflowService) Config(ctx context.Context) (models.Config, error) {
	return s.store.Load(ctx)
}

// HashPassword computes the MD5 hex digest the vendor requires as the wire
// credential and stores it in place of any prior digest. It also stamps a
// fresh epoch-ms marker used only for diagnostic display.
func (s *WorkflowService) HashPassword(ctx context.Context, plain string) (models.Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return cfg, err
	}

	plain = strings.TrimSpace(plain)
	var opErr error
	if plain == "" {
		opErr = errEmptyPassword
	} else {
		sum := md5.Sum([]byte(plain))
		cfg.PasswordMD5 = hex.EncodeToString(sum[:])
		cfg.LastDateMS = epochMS()
	}

	if err := s.store.Save(ctx, cfg); err != nil {
		return cfg, err
	}
	s.journal(ctx, models.EventPassword, "Password digest updated", nil, opErr)
	return cfg, opErr
}

// SaveSettings persists operator-supplied endpoint and application
// credentials verbatim. It does not touch username or password digest.
func (s *WorkflowService) SaveSettings(ctx context.Context, p SettingsParams) (models.Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return cfg, err
	}

	if v := strings.TrimSpace(p.APIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}
	cfg.RedirectURI = strings.TrimSpace(p.RedirectURI)
	cfg.ClientID = strings.TrimSpace(p.ClientID)
	cfg.ClientSecret = strings.TrimSpace(p.ClientSecret)

	if err := s.store.Save(ctx, cfg); err != nil {
		return cfg, err
	}
	s.journal(ctx, models.EventSettings, "Settings saved", map[string]any{
		"api_base_url": cfg.APIBaseURL,
		"client_id":    cfg.ClientID,
	}, nil)
	return cfg, nil
}

// Register creates the vendor cloud account. On success the stored username
// is replaced with the vendor-returned one (the vendor may return a
// transformed, e.g. prefixed, username).
func (s *WorkflowService) Register(ctx context.Context, p CredentialOverrides) (models.Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return cfg, err
	}
	applyOverride(&cfg.APIBaseURL, p.APIBaseURL)
	applyOverride(&cfg.Username, p.Username)
	applyOverride(&cfg.PasswordMD5, p.PasswordMD5)

	cfg.RawRegisterResponse = ""

	var opErr error
	if !hasCredentials(cfg) {
		opErr = errMissingCredentials
	} else {
		res, err := s.api.RegisterUser(ctx, cfg.APIBaseURL, cfg.ClientID, cfg.ClientSecret, cfg.Username, cfg.PasswordMD5)
		if err != nil {
			opErr = err
		} else {
			if res.Username != "" {
				cfg.Username = res.Username
			}
			cfg.RawRegisterResponse = prettyJSON(res.Raw)
		}
	}

	if err := s.store.Save(ctx, cfg); err != nil {
		return cfg, err
	}
	s.journal(ctx, models.EventRegister, "User registered as "+cfg.Username, nil, opErr)
	return cfg, opErr
}

// GetToken runs the password-grant exchange and stores both returned
// tokens, discarding any previously stored pair unconditionally.
func (s *WorkflowService) GetToken(ctx context.Context, p CredentialOverrides) (models.Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return cfg, err
	}
	applyOverride(&cfg.APIBaseURL, p.APIBaseURL)
	applyOverride(&cfg.RedirectURI, p.RedirectURI)
	applyOverride(&cfg.Username, p.Username)
	applyOverride(&cfg.PasswordMD5, p.PasswordMD5)

	cfg.RawTokenResponse = ""

	var opErr error
	if !hasCredentials(cfg) {
		opErr = errMissingCredentials
	} else {
		res, err := s.api.GetAccessToken(ctx, cfg.APIBaseURL, cfg.ClientID, cfg.ClientSecret, cfg.Username, cfg.PasswordMD5, cfg.RedirectURI)
		if err != nil {
			opErr = err
		} else {
			cfg.AccessToken = res.AccessToken
			cfg.RefreshToken = res.RefreshToken
			cfg.RawTokenResponse = prettyJSON(res.Raw)
		}
	}

	if err := s.store.Save(ctx, cfg); err != nil {
		return cfg, err
	}
	s.journal(ctx, models.EventToken, "Access token obtained", nil, opErr)
	return cfg, opErr
}

// FetchLocks replaces the stored lock list wholesale. Token expiry is not
// handled specially; an expired token produces a generic vendor error.
func (s *WorkflowService) FetchLocks(ctx context.Context) (models.Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return cfg, err
	}

	var opErr error
	if cfg.AccessToken == "" {
		opErr = ErrNoAccessToken
	} else {
		res, err := s.api.ListLocks(ctx, cfg.APIBaseURL, cfg.AccessToken, 0, 0)
		if err != nil {
			opErr = err
			cfg.LastLockError = err.Error()
		} else {
			cfg.Locks = res.Locks
			cfg.LastLockError = ""
		}
	}

	if err := s.store.Save(ctx, cfg); err != nil {
		return cfg, err
	}
	s.journal(ctx, models.EventFetchLocks, fmt.Sprintf("Fetched %d locks", len(cfg.Locks)), nil, opErr)
	return cfg, opErr
}

// OperateLock proxies a lock/unlock command. The action is validated before
// any network call. The raw vendor body lands in last_lock_action_result on
// success; on failure the result is cleared and last_lock_error set.
func (s *WorkflowService) OperateLock(ctx context.Context, lockID int64, action string) (models.Config, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return cfg, err
	}

	var opErr error
	switch {
	case cfg.AccessToken == "":
		opErr = ErrNoAccessToken
	case lockID == 0:
		opErr = errNoLockSelected
	case !ttlock.ValidAction(strings.ToLower(action)):
		opErr = fmt.Errorf("Invalid action: %s", action)
	default:
		raw, err := s.api.OperateLock(ctx, cfg.APIBaseURL, cfg.AccessToken, lockID, strings.ToLower(action))
		if err != nil {
			opErr = err
		} else {
			cfg.LastLockActionResult = string(raw)
			cfg.LastLockError = ""
		}
	}
	if opErr != nil {
		cfg.LastLockActionResult = ""
		cfg.LastLockError = opErr.Error()
	}

	if err := s.store.Save(ctx, cfg); err != nil {
		return cfg, err
	}
	s.journal(ctx, models.EventLockAction, fmt.Sprintf("%s lock %d", strings.ToLower(action), lockID), map[string]any{
		"lock_id": lockID,
		"action":  strings.ToLower(action),
	}, opErr)
	return cfg, opErr
}

// QuickSetup accepts any subset of credentials in one call. A plaintext
// password overrides a supplied digest by re-hashing. If an access token
// ends up set (supplied or pre-existing), a lock-list fetch runs as a
// verification probe.
func (s *WorkflowService) QuickSetup(ctx context.Context, p SetupParams) (models.Config, string, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return cfg, "", err
	}

	applyOverride(&cfg.APIBaseURL, p.APIBaseURL)
	applyOverride(&cfg.Username, p.Username)
	if plain := strings.TrimSpace(p.Password); plain != "" {
		sum := md5.Sum([]byte(plain))
		cfg.PasswordMD5 = hex.EncodeToString(sum[:])
		cfg.LastDateMS = epochMS()
	} else {
		applyOverride(&cfg.PasswordMD5, p.PasswordMD5)
	}
	applyOverride(&cfg.AccessToken, p.AccessToken)
	applyOverride(&cfg.RefreshToken, p.RefreshToken)

	var (
		msg   string
		opErr error
	)
	if cfg.AccessToken != "" {
		res, err := s.api.ListLocks(ctx, cfg.APIBaseURL, cfg.AccessToken, 0, 0)
		if err != nil {
			opErr = err
			cfg.LastLockError = err.Error()
		} else {
			cfg.Locks = res.Locks
			cfg.LastLockError = ""
			msg = fmt.Sprintf("Credentials saved, access token verified: %d locks fetched.", len(res.Locks))
		}
	} else {
		msg = "Credentials saved."
	}

	if err := s.store.Save(ctx, cfg); err != nil {
		return cfg, "", err
	}
	s.journal(ctx, models.EventSetup, "Quick setup", map[string]any{
		"token_present": cfg.AccessToken != "",
		"locks":         len(cfg.Locks),
	}, opErr)
	return cfg, msg, opErr
}

// journal writes one human-readable log line and a best-effort journal row
// per significant workflow event. Journal failures are logged, not raised.
func (s *WorkflowService) journal(ctx context.Context, typ, desc string, meta map[string]any, opErr error) {
	if opErr != nil {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["error"] = opErr.Error()
		if s.log != nil {
			s.log.Errorw(desc, "type", typ, "err", opErr)
		}
	} else if s.log != nil {
		s.log.Infow(desc, "type", typ)
	}

	if s.events == nil {
		return
	}
	var metaAny any
	if meta != nil {
		metaAny = meta
	}
	if err := s.events.Append(ctx, models.BridgeEvent{
		Type:        typ,
		Description: desc,
		Metadata:    metaAny,
	}); err != nil && s.log != nil {
		s.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}

func hasCredentials(cfg models.Config) bool {
	return cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.Username != "" && cfg.PasswordMD5 != ""
}

// applyOverride sets dst from a trimmed non-empty value; absent overrides
// preserve stored values.
func applyOverride(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// prettyJSON re-indents a raw vendor body for operator diagnostics, keeping
// the original text when it will not indent.
func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func epochMS() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

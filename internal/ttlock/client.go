package ttlock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ttlock-bridge/internal/models"
)

const (
	pathRegister = "/v3/user/register"
	pathToken    = "/oauth2/token"
	pathLockList = "/v3/lock/list"
	pathLock     = "/v3/lock/lock"
	pathUnlock   = "/v3/lock/unlock"

	// DefaultPageSize is the lock-list page size sent when the caller
	// passes zero.
	DefaultPageSize = 100

	defaultTimeout = 15 * time.Second
)

// Lock/unlock actions accepted by OperateLock.
const (
	ActionLock   = "lock"
	ActionUnlock = "unlock"
)

// ValidAction reports whether a is one of the two supported lock actions.
func ValidAction(a string) bool {
	return a == ActionLock || a == ActionUnlock
}

// Client talks to the vendor cloud. It is stateless: every call takes the
// base URL and credentials explicitly, so one client serves any region.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a client with the standard vendor call timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// RegisterResult is the useful part of a register response plus the raw body.
type RegisterResult struct {
	Username string
	Raw      []byte
}

// TokenResult holds the bearer credentials from an OAuth token response.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	Raw          []byte
}

// LockList is a parsed lock-list response.
type LockList struct {
	Locks []models.LockSummary
	Raw   []byte
}

// RegisterUser creates a cloud account under the application. The vendor may
// return a transformed username (e.g. prefixed with the application key);
// callers should adopt it.
func (c *Client) RegisterUser(ctx context.Context, baseURL, clientID, clientSecret, username, passwordMD5 string) (RegisterResult, error) {
	form := url.Values{}
	form.Set("clientId", clientID)
	form.Set("clientSecret", clientSecret)
	form.Set("username", username)
	form.Set("password", passwordMD5)
	form.Set("date", nowMS())

	body, err := c.postForm(ctx, "Register", baseURL, pathRegister, form)
	if err != nil {
		return RegisterResult{}, err
	}
	if !gjson.GetBytes(body, "username").Exists() {
		return RegisterResult{}, &APIError{Op: "Register", Kind: KindSemantic, Body: string(body)}
	}
	return RegisterResult{
		Username: gjson.GetBytes(body, "username").String(),
		Raw:      body,
	}, nil
}

// GetAccessToken performs the password-grant token exchange. redirectURI is
// sent only when non-empty.
func (c *Client) GetAccessToken(ctx context.Context, baseURL, clientID, clientSecret, username, passwordMD5, redirectURI string) (TokenResult, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", passwordMD5)
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	body, err := c.postForm(ctx, "Token", baseURL, pathToken, form)
	if err != nil {
		return TokenResult{}, err
	}
	if !gjson.GetBytes(body, "access_token").Exists() {
		return TokenResult{}, &APIError{Op: "Token", Kind: KindSemantic, Body: string(body)}
	}
	return TokenResult{
		AccessToken:  gjson.GetBytes(body, "access_token").String(),
		RefreshToken: gjson.GetBytes(body, "refresh_token").String(),
		Raw:          body,
	}, nil
}

// ListLocks fetches one page of the account's locks. pageNo and pageSize
// default to 1 and DefaultPageSize when zero.
func (c *Client) ListLocks(ctx context.Context, baseURL, accessToken string, pageNo, pageSize int) (LockList, error) {
	if pageNo <= 0 {
		pageNo = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	form := url.Values{}
	form.Set("accessToken", accessToken)
	form.Set("pageNo", strconv.Itoa(pageNo))
	form.Set("pageSize", strconv.Itoa(pageSize))
	form.Set("date", nowMS())

	body, err := c.postForm(ctx, "Lock list", baseURL, pathLockList, form)
	if err != nil {
		return LockList{}, err
	}
	if !gjson.GetBytes(body, "list").Exists() {
		return LockList{}, &APIError{Op: "Lock list", Kind: KindSemantic, Body: string(body)}
	}

	var parsed struct {
		List []models.LockSummary `json:"list"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return LockList{}, &APIError{Op: "Lock list", Kind: KindDecode, Body: string(body)}
	}
	if parsed.List == nil {
		parsed.List = []models.LockSummary{}
	}
	return LockList{Locks: parsed.List, Raw: body}, nil
}

// OperateLock sends a lock or unlock command. The action is validated before
// any network traffic. The response body is returned verbatim as long as it
// is valid JSON; interpreting vendor error codes inside it is the caller's
// concern.
func (c *Client) OperateLock(ctx context.Context, baseURL, accessToken string, lockID int64, action string) ([]byte, error) {
	action = strings.ToLower(action)
	if !ValidAction(action) {
		return nil, fmt.Errorf("invalid action: %s", action)
	}

	path := pathLock
	if action == ActionUnlock {
		path = pathUnlock
	}

	form := url.Values{}
	form.Set("accessToken", accessToken)
	form.Set("lockId", strconv.FormatInt(lockID, 10))
	form.Set("date", nowMS())

	return c.postForm(ctx, opName(action), baseURL, path, form)
}

// postForm issues one form-encoded POST and applies the shared error
// classification: transport (connection error or non-2xx), then decode
// (body is not JSON). Semantic checks stay with the individual operations.
func (c *Client) postForm(ctx context.Context, op, baseURL, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(baseURL, path), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &APIError{Op: op, Kind: KindTransport, Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, Kind: KindTransport, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: op, Kind: KindTransport, Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, &APIError{Op: op, Kind: KindTransport, Status: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, &APIError{Op: op, Kind: KindDecode, Body: string(body)}
	}
	return body, nil
}

func joinURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// nowMS is the vendor's required request timestamp, generated fresh per call.
func nowMS() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func opName(action string) string {
	if action == ActionUnlock {
		return "Unlock"
	}
	return "Lock"
}

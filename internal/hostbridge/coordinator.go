// Package hostbridge is the automation-host side of the system: a polling
// coordinator that mirrors the bridge's lock list and relays lock/unlock
// commands back to it. The snapshot it maintains is the entity vocabulary of
// the host (alias, battery, gateway presence, optional locked state).
package hostbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ttlock-bridge/internal/logger"
	"ttlock-bridge/internal/models"
)

const (
	// DefaultInterval is the periodic refresh cadence.
	DefaultInterval = 30 * time.Second

	pollTimeout    = 10 * time.Second
	commandTimeout = 15 * time.Second
)

// Lock is one entry of the coordinator's snapshot.
type Lock struct {
	ID         int64
	Alias      string
	Battery    int
	HasGateway bool
	Model      string
	Locked     *bool // nil when the bridge does not report live state
}

// UpdateFailedError marks a failed refresh cycle: transport error, non-2xx
// status or undecodable body. It suppresses availability until the next
// successful cycle and is never raised out of the poll loop.
type UpdateFailedError struct {
	Cause error
}

func (e *UpdateFailedError) Error() string {
	return "error communicating with bridge: " + e.Cause.Error()
}

func (e *UpdateFailedError) Unwrap() error { return e.Cause }

// Coordinator polls the bridge's lock-list endpoint and swaps its in-memory
// snapshot wholesale; readers never see a partial list. A command in flight
// does not block a concurrent poll.
type Coordinator struct {
	baseURL    string
	interval   time.Duration
	httpClient *http.Client
	log        *logger.Logger

	mu        sync.RWMutex
	locks     []Lock
	available bool
	lastErr   error

	refreshCh chan struct{}
}

// New returns a coordinator for the bridge at baseURL. A non-positive
// interval selects DefaultInterval.
func New(baseURL string, interval time.Duration, log *logger.Logger) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coordinator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		interval:   interval,
		httpClient: &http.Client{},
		log:        log,
		refreshCh:  make(chan struct{}, 1),
	}
}

// Run owns the refresh loop until ctx is cancelled. An immediate refresh
// precedes the first tick so entities come up without waiting a full
// interval.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		case <-c.refreshCh:
			c.refresh(ctx)
		}
	}
}

// Locks returns a copy of the current snapshot.
func (c *Coordinator) Locks() []Lock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Lock, len(c.locks))
	copy(out, c.locks)
	return out
}

// Available reports whether the last refresh cycle succeeded.
func (c *Coordinator) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// LastError returns the failure of the most recent unsuccessful cycle, or
// nil while available.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// RequestRefresh schedules an out-of-cycle refresh. Non-blocking; redundant
// requests collapse into one.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// LockAction sends a lock/unlock command to the bridge. A non-2xx status is
// a hard error carrying status and body; a 2xx status is success even if
// the body is not JSON or lacks a success marker — the status code is
// authoritative, the body advisory. After success an out-of-cycle refresh
// is requested so the host's view converges quickly.
func (c *Coordinator) LockAction(ctx context.Context, lockID int64, action string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	url := c.baseURL + "/api/locks/" + strconv.FormatInt(lockID, 10) + "/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s lock %d: %w", action, lockID, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d when %s lock %d: %s", resp.StatusCode, action, lockID, body)
	}

	if c.log != nil {
		c.log.Infow("lock_action_sent", "lock_id", lockID, "action", action)
	}
	c.RequestRefresh()
	return nil
}

// refresh performs one poll cycle. Failures mark data stale; they never
// propagate.
func (c *Coordinator) refresh(ctx context.Context) {
	locks, err := c.fetchLocks(ctx)
	if err != nil {
		c.mu.Lock()
		c.available = false
		c.lastErr = &UpdateFailedError{Cause: err}
		c.mu.Unlock()
		if c.log != nil {
			c.log.Warnw("lock_poll_failed", "err", err)
		}
		return
	}

	c.mu.Lock()
	c.locks = locks
	c.available = true
	c.lastErr = nil
	c.mu.Unlock()
	if c.log != nil {
		c.log.Debugw("lock_poll_ok", "locks", len(locks))
	}
}

func (c *Coordinator) fetchLocks(ctx context.Context) ([]Lock, error) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/locks", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d error when fetching locks: %s", resp.StatusCode, body)
	}

	var parsed struct {
		Locks []models.LockSummary `json:"locks"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding lock list: %w", err)
	}

	out := make([]Lock, 0, len(parsed.Locks))
	for _, l := range parsed.Locks {
		out = append(out, Lock{
			ID:         l.LockID,
			Alias:      l.LockAlias,
			Battery:    l.ElectricQuantity,
			HasGateway: l.HasGateway != 0,
			Model:      l.ModelNum,
			Locked:     l.IsLocked,
		})
	}
	return out, nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ttlock-bridge/internal/models"
	"ttlock-bridge/internal/service"
)

const errLoadConfig = "failed to load configuration"

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      List locks
// @Description  Returns the cached lock list. With an access token and an empty cache, a best-effort fetch runs first; fetch failures are logged, not surfaced.
// @Tags         locks
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "locks"
// @Failure      500  {object}  map[string]string
// @Router       /api/locks [get]
func (h *Handler) listLocks(c *gin.Context) {
	ctx := c.Request.Context()

	cfg, err := h.services.Config(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadConfig, "config_load_failed", err)
		return
	}

	// On-demand fetch when nothing is cached yet. Without a token there is
	// nothing to try and the endpoint answers from the (empty) cache.
	if len(cfg.Locks) == 0 && cfg.AccessToken != "" {
		fetched, err := h.services.FetchLocks(ctx)
		if err != nil {
			if h.log != nil {
				h.log.Infow("on_demand_lock_fetch_failed", "err", err)
			}
		} else {
			cfg = fetched
		}
	}

	locks := cfg.Locks
	if locks == nil {
		locks = []models.LockSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"locks": locks})
}

// @Summary      Lock or unlock
// @Description  Proxies a lock/unlock command to the vendor cloud and returns the vendor body verbatim.
// @Tags         locks
// @Produce      json
// @Param        lockId  path  int     true  "Vendor lock identifier"
// @Param        action  path  string  true  "lock or unlock"  Enums(lock,unlock)
// @Success      200  {object}  map[string]interface{}  "success, result"
// @Failure      400  {object}  map[string]interface{}  "no access token"
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/locks/{lockId}/{action} [post]
func (h *Handler) operateLock(c *gin.Context) {
	ctx := c.Request.Context()
	action := c.Param("action")

	lockID, err := strconv.ParseInt(c.Param("lockId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "invalid lock id: " + c.Param("lockId"),
		})
		return
	}

	cfg, opErr := h.services.OperateLock(ctx, lockID, action)
	if opErr != nil {
		status := http.StatusInternalServerError
		if errors.Is(opErr, service.ErrNoAccessToken) {
			status = http.StatusBadRequest
		}
		if h.log != nil {
			h.log.Errorw("lock_action_failed", "lock_id", lockID, "action", action, "err", opErr)
		}
		c.JSON(status, gin.H{"success": false, "error": opErr.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  json.RawMessage(cfg.LastLockActionResult),
	})
}

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ttlock-bridge/internal/models"
	"ttlock-bridge/internal/service"
)

const errInvalidBodyPref = "invalid body: "

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// bindOptionalJSON decodes a JSON body into req, tolerating an empty body
// (every field of every workflow request is optional).
func bindOptionalJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// respondStep renders a workflow step result: the persisted record plus
// either a confirmation or a single error string. Step failures still carry
// HTTP 200 because the record was persisted and the error is operator
// diagnostics, mirroring the save-then-report contract of every step.
func respondStep(c *gin.Context, cfg models.Config, message string, opErr error) {
	resp := gin.H{"config": cfg}
	if opErr != nil {
		resp["error"] = opErr.Error()
	} else if message != "" {
		resp["message"] = message
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Current configuration record
// @Tags         workflow
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "config"
// @Failure      500  {object}  map[string]string
// @Router       /api/config [get]
func (h *Handler) getConfig(c *gin.Context) {
	cfg, err := h.services.Config(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadConfig, "config_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// @Summary      Save application settings
// @Description  Stores endpoint URL, redirect URI and application credentials verbatim. Does not touch username/password.
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Param        body  body  service.SettingsParams  true  "Settings payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/settings [post]
func (h *Handler) saveSettings(c *gin.Context) {
	var req service.SettingsParams
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	cfg, err := h.services.SaveSettings(c.Request.Context(), req)
	respondStep(c, cfg, "Settings saved.", err)
}

type passwordRequest struct {
	Password string `json:"password"`
}

// @Summary      Hash password
// @Description  Computes the MD5 hex digest of the plaintext and stores it; the plaintext is never persisted.
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Param        body  body  passwordRequest  true  "Plaintext password"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/password [post]
func (h *Handler) hashPassword(c *gin.Context) {
	var req passwordRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	cfg, err := h.services.HashPassword(c.Request.Context(), req.Password)
	respondStep(c, cfg, "Password hashed.", err)
}

// @Summary      Register vendor account
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Param        body  body  service.CredentialOverrides  false  "Optional overrides"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/register [post]
func (h *Handler) registerUser(c *gin.Context) {
	var req service.CredentialOverrides
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	cfg, err := h.services.Register(c.Request.Context(), req)
	respondStep(c, cfg, "User registered.", err)
}

// @Summary      Obtain OAuth access token
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Param        body  body  service.CredentialOverrides  false  "Optional overrides"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/token [post]
func (h *Handler) getToken(c *gin.Context) {
	var req service.CredentialOverrides
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	cfg, err := h.services.GetToken(c.Request.Context(), req)
	respondStep(c, cfg, "Access token stored.", err)
}

// @Summary      Fast-path setup
// @Description  Accepts any subset of credentials in one call; a plaintext password overrides a supplied digest. With a token set, verifies it by fetching the lock list.
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Param        body  body  service.SetupParams  true  "Setup payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/setup [post]
func (h *Handler) quickSetup(c *gin.Context) {
	var req service.SetupParams
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	cfg, msg, err := h.services.QuickSetup(c.Request.Context(), req)
	respondStep(c, cfg, msg, err)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// CreateAPIKeyRequest is the POST /bot-keys payload. An empty name becomes "Default".
type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty" binding:"max=128" example:"my-bot"`
}

// CreateAPIKeyResponse carries the new key. Secret is shown only once.
type CreateAPIKeyResponse struct {
	Key    domain.BotAPIKey `json:"key"`
	Secret string           `json:"secret" example:"ltk_7fQ2..."`
}

// APIKeysResponse lists the caller's keys.
type APIKeysResponse struct {
	Keys []domain.BotAPIKey `json:"keys"`
}

// CreateAPIKey godoc
// @ID          createAPIKey
// @Summary     Create a bot API key
// @Tags        Keys
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateAPIKeyRequest  false "Key name"
// @Success     201   {object}  handlers.CreateAPIKeyResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bot-keys [post]
func (h *Handlers) CreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	k, err := h.apiKeys.Create(c.Request.Context(), userID(c), req.Name)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, CreateAPIKeyResponse{Key: k.Key, Secret: k.Secret})
}

// ListAPIKeys godoc
// @ID          listAPIKeys
// @Summary     List my bot API keys
// @Tags        Keys
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.APIKeysResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bot-keys [get]
func (h *Handlers) ListAPIKeys(c *gin.Context) {
	keys, err := h.apiKeys.List(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, APIKeysResponse{Keys: keys})
}

// RevokeAPIKey godoc
// @ID          revokeAPIKey
// @Summary     Revoke a bot API key
// @Tags        Keys
// @Security    BearerAuth
// @Param       id  path  string  true  "Key ID"
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "Key not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bot-keys/{id} [delete]
func (h *Handlers) RevokeAPIKey(c *gin.Context) {
	if err := h.apiKeys.Revoke(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

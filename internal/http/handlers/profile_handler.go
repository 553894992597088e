package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/services"
)

// UpdateProfileRequest is the PUT /me payload. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	Nickname    *string   `json:"nickname,omitempty" example:"alice"`
	Description *string   `json:"description,omitempty" example:"usually in the second car"`
	Interests   *[]string `json:"interests,omitempty"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Get my profile
// @Tags        Profile
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
// @Success     200  {object}  domain.Profile
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     404  {object}  handlers.ErrorResponse  "Profile not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /me [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update my profile
// @Description Interests are trimmed, NFC-normalized and de-duplicated case-insensitively, keeping first-seen order.
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
// @Param       body  body      handlers.UpdateProfileRequest  true  "Fields to change"
// @Success     200   {object}  domain.Profile
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid profile"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     404   {object}  handlers.ErrorResponse  "Profile not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /me [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), userID(c), services.ProfileUpdate{
		Nickname:    req.Nickname,
		Description: req.Description,
		Interests:   req.Interests,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

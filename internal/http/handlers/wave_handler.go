package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/events"
)

// SendWaveRequest is the POST /waves payload.
type SendWaveRequest struct {
	ToUserID  string `json:"to_user_id" binding:"required" example:"8f14e45f-ceea-467f-a0e6-1b2b3c4d5e6f"`
	StationID string `json:"station_id" binding:"required" example:"bedford-av"`
	Message   string `json:"message,omitempty" example:"hi from the next car"`
}

// WavesResponse lists waves received within the feed window, newest first.
type WavesResponse struct {
	Waves []domain.Signal `json:"waves"`
}

// SendWave godoc
// @ID          sendWave
// @Summary     Wave at another rider
// @Tags        Waves
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
// @Param       body  body      handlers.SendWaveRequest  true  "Wave"
// @Success     201   {object}  domain.Signal
// @Failure     400   {object}  handlers.ErrorResponse  "Validation error"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waves [post]
func (h *Handlers) SendWave(c *gin.Context) {
	var req SendWaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to_user_id and station_id are required")
		return
	}
	w, err := h.waves.Send(c.Request.Context(), userID(c), req.ToUserID, req.StationID, req.Message)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, w)
}

// ListWaves godoc
// @ID          listWaves
// @Summary     List waves I received
// @Tags        Waves
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
// @Success     200  {object}  handlers.WavesResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /waves [get]
func (h *Handlers) ListWaves(c *gin.Context) {
	items, err := h.waves.ListRecent(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, WavesResponse{Waves: items})
}

// StreamWaves godoc
// @ID          streamWaves
// @Summary     Stream waves and match updates
// @Description Server-sent events: a "snapshot" of recent waves, then "wave.created" per new wave. Proposal changes addressed to the caller are relayed as "match.proposed" and "match.answered".
// @Tags        Waves
// @Produce     text/event-stream
// @Security    BearerAuth
// @Param       access_token  query  string  false  "Bearer token for EventSource clients"
// @Success     200
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Router      /waves/stream [get]
func (h *Handlers) StreamWaves(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	sub, err := h.waves.Subscribe(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	snap, err := h.waves.ListRecent(ctx, uid)
	if err != nil {
		_ = sub.Close()
		failErr(c, err)
		return
	}
	serveLive(h, c, liveFeed[domain.Signal]{
		name:     "waves",
		sub:      sub,
		snapshot: snap,
		itemType: events.TypeWave,
		relay: map[string]bool{
			events.TypeMatchProposed: true,
			events.TypeMatchAnswered: true,
			events.TypeMatchExpired:  true,
		},
		id: func(w domain.Signal) string { return w.ID },
		at: func(w domain.Signal) time.Time { return w.CreatedAt },
	})
}

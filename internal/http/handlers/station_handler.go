package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/stations"
)

// StationView is a station with its nearby venues.
type StationView struct {
	stations.Station
	Venues []stations.Venue `json:"venues,omitempty"`
}

// StationsResponse lists the line's stations in order.
type StationsResponse struct {
	Line     string        `json:"line" example:"L"`
	Stations []StationView `json:"stations"`
}

// CreateCheckInRequest is the POST /stations/{id}/checkins payload.
type CreateCheckInRequest struct {
	Nickname    string  `json:"nickname,omitempty" example:"alice"`
	Description *string `json:"description,omitempty" example:"red scarf, by the stairs"`
}

// CheckInsResponse lists recent check-ins, newest first.
type CheckInsResponse struct {
	CheckIns []domain.CheckIn `json:"check_ins"`
}

// ListStations godoc
// @ID          listStations
// @Summary     List stations
// @Tags        Stations
// @Produce     json
// @Success     200  {object}  handlers.StationsResponse
// @Router      /stations [get]
func (h *Handlers) ListStations(c *gin.Context) {
	list := h.catalog.Stations()
	out := make([]StationView, len(list))
	for i, s := range list {
		out[i] = StationView{Station: s, Venues: h.catalog.Venues(s.ID)}
	}
	ok(c, http.StatusOK, StationsResponse{Line: h.catalog.Line(), Stations: out})
}

// CreateCheckIn godoc
// @ID          createCheckIn
// @Summary     Check in at a station
// @Description Announces presence at the station for the feed window. Nickname defaults to the profile nickname.
// @Tags        Stations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
// @Param       id    path      string                         true   "Station ID"
// @Param       body  body      handlers.CreateCheckInRequest  false  "Check-in"
// @Success     201   {object}  domain.CheckIn
// @Failure     400   {object}  handlers.ErrorResponse  "Unknown station or invalid body"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stations/{id}/checkins [post]
func (h *Handlers) CreateCheckIn(c *gin.Context) {
	var req CreateCheckInRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	ci, err := h.checkIns.Create(c.Request.Context(), userID(c), c.Param("id"), req.Nickname, req.Description)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, ci)
}

// ListCheckIns godoc
// @ID          listCheckIns
// @Summary     List recent check-ins at a station
// @Tags        Stations
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
// @Param       id   path      string  true  "Station ID"
// @Success     200  {object}  handlers.CheckInsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown station"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stations/{id}/checkins [get]
func (h *Handlers) ListCheckIns(c *gin.Context) {
	items, err := h.checkIns.ListRecent(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CheckInsResponse{CheckIns: items})
}

// StreamCheckIns godoc
// @ID          streamCheckIns
// @Summary     Stream check-ins at a station
// @Description Server-sent events: one "snapshot" event with the current feed, then a "checkin.created" event per new check-in and a "ping" every 15 seconds. Browsers may pass the token as access_token.
// @Tags        Stations
// @Produce     text/event-stream
// @Security    BearerAuth
// @Param       id            path   string  true   "Station ID"
// @Param       access_token  query  string  false  "Bearer token for EventSource clients"
// @Success     200
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown station"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Router      /stations/{id}/checkins/stream [get]
func (h *Handlers) StreamCheckIns(c *gin.Context) {
	ctx := c.Request.Context()
	stationID := c.Param("id")

	sub, err := h.checkIns.Subscribe(ctx, stationID)
	if err != nil {
		failErr(c, err)
		return
	}
	snap, err := h.checkIns.ListRecent(ctx, stationID)
	if err != nil {
		_ = sub.Close()
		failErr(c, err)
		return
	}
	serveLive(h, c, liveFeed[domain.CheckIn]{
		name:     "checkins",
		sub:      sub,
		snapshot: snap,
		itemType: events.TypeCheckIn,
		id:       func(ci domain.CheckIn) string { return ci.ID },
		at:       func(ci domain.CheckIn) time.Time { return ci.CreatedAt },
	})
}

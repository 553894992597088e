// Bot action-dispatch endpoint.
//
// Bots talk to a single endpoint and select the operation with an "action"
// field:
//   - POST /bot  {"action":"register|discover|propose|respond|heartbeat", ...}
//   - GET  /bot?action=matches|proposals
//
// Requests authenticate with "Authorization: Bearer <session token>" or
// "Authorization: Bot <api key>".
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/http/middleware"
	"github.com/tbourn/ltrain-backend/internal/services"
)

//
// DTOs
//

// BotRequest is the POST /bot payload. Which fields are read depends on Action.
type BotRequest struct {
	Action         string `json:"action" binding:"required" example:"propose"`
	StationID      string `json:"station_id,omitempty" example:"bedford-av"`
	Direction      string `json:"direction,omitempty" example:"south"`
	Limit          int    `json:"limit,omitempty" example:"10"`
	TargetUserID   string `json:"target_user_id,omitempty" example:"8f14e45f-ceea-467f-a0e6-1b2b3c4d5e6f"`
	IdempotencyKey string `json:"idempotency_key,omitempty" example:"propose_3f2a9c1d_8f14e45f_01J9Z3N6W8"`
	MatchID        string `json:"match_id,omitempty"`
	Accept         *bool  `json:"accept,omitempty"`
}

// RegisterResponse is returned by action=register.
type RegisterResponse struct {
	Success bool               `json:"success"`
	Session *domain.BotSession `json:"session"`
}

// DiscoverResponse is returned by action=discover.
type DiscoverResponse struct {
	Bots []services.DiscoveredBot `json:"bots"`
}

// MatchResponse is returned by action=propose and action=respond.
type MatchResponse struct {
	Match     *domain.Match `json:"match"`
	Duplicate bool          `json:"duplicate,omitempty"`
}

// SuccessResponse is returned by action=heartbeat.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// MatchesResponse is returned by action=matches.
type MatchesResponse struct {
	Matches []domain.Match `json:"matches"`
}

// ProposalsResponse is returned by action=proposals.
type ProposalsResponse struct {
	Proposals []domain.Match `json:"proposals"`
}

//
// Handlers
//

// BotAction godoc
// @ID          botAction
// @Summary     Run a bot action
// @Description Dispatches register, discover, propose, respond or heartbeat. For propose the idempotency key may also be sent as the Idempotency-Key header; a key already used returns the stored proposal with duplicate=true.
// @Tags        Bot
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
//
// @Param       Idempotency-Key  header  string              false  "Propose idempotency key"
// @Param       body             body    handlers.BotRequest true   "Action payload"
//
// @Success     200  {object}  handlers.MatchResponse  "respond, or propose replay (see also RegisterResponse, DiscoverResponse, SuccessResponse)"
// @Success     201  {object}  handlers.MatchResponse  "propose created"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error or unknown action"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the proposal's target"
// @Failure     404  {object}  handlers.ErrorResponse  "Proposal or session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Proposal expired"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bot [post]
func (h *Handlers) BotAction(c *gin.Context) {
	var req BotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "register":
		h.botRegister(c, req)
	case "discover":
		h.botDiscover(c, req)
	case "propose":
		h.botPropose(c, req)
	case "respond":
		h.botRespond(c, req)
	case "heartbeat":
		h.botHeartbeat(c, req)
	default:
		fail(c, http.StatusBadRequest, ErrCodeUnknownAction, "unknown action")
	}
}

// BotQuery godoc
// @ID          botQuery
// @Summary     Read bot state
// @Description action=matches lists pending and accepted proposals the caller is party to (weak ETag, may return 304); action=proposals lists pending proposals addressed to the caller.
// @Tags        Bot
// @Produce     json
// @Security    BearerAuth
// @Security    BotKey
//
// @Param       action         query   string  true   "matches or proposals"  Enums(matches, proposals)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.MatchesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown action"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bot [get]
func (h *Handlers) BotQuery(c *gin.Context) {
	switch action := strings.ToLower(strings.TrimSpace(c.Query("action"))); action {
	case "matches", "proposals":
		if h.notModified(c, action) {
			return
		}
		uid := userID(c)
		if action == "matches" {
			items, err := h.proposals.ListMatches(c.Request.Context(), uid)
			if err != nil {
				failErr(c, err)
				return
			}
			ok(c, http.StatusOK, MatchesResponse{Matches: items})
			return
		}
		items, err := h.proposals.ListIncoming(c.Request.Context(), uid)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, ProposalsResponse{Proposals: items})
	default:
		fail(c, http.StatusBadRequest, ErrCodeUnknownAction, "unknown action")
	}
}

func (h *Handlers) botRegister(c *gin.Context, req BotRequest) {
	s, err := h.presence.Register(c.Request.Context(), userID(c), req.StationID, req.Direction)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RegisterResponse{Success: true, Session: s})
}

func (h *Handlers) botDiscover(c *gin.Context, req BotRequest) {
	bots, err := h.presence.Discover(c.Request.Context(), userID(c), req.StationID, req.Limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DiscoverResponse{Bots: bots})
}

func (h *Handlers) botPropose(c *gin.Context, req BotRequest) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key, _ = middleware.GetIdempotencyKey(c)
	}

	m, dup, err := h.proposals.Propose(c.Request.Context(), services.ProposeInput{
		ProposerID:     userID(c),
		TargetID:       req.TargetUserID,
		StationID:      req.StationID,
		IdempotencyKey: key,
		Direction:      req.Direction,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if dup {
		ok(c, http.StatusOK, MatchResponse{Match: m, Duplicate: true})
		return
	}
	ok(c, http.StatusCreated, MatchResponse{Match: m})
}

func (h *Handlers) botRespond(c *gin.Context, req BotRequest) {
	if req.Accept == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "accept required")
		return
	}
	m, err := h.proposals.Respond(c.Request.Context(), userID(c), req.MatchID, *req.Accept)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MatchResponse{Match: m})
}

func (h *Handlers) botHeartbeat(c *gin.Context, req BotRequest) {
	if err := h.presence.Heartbeat(c.Request.Context(), userID(c), req.StationID, req.Direction); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}

// notModified sets a weak ETag over the caller's proposals and answers 304
// when If-None-Match carries it. Stats failures only skip the ETag.
func (h *Handlers) notModified(c *gin.Context, view string) bool {
	if h.matchStats == nil {
		return false
	}
	uid := userID(c)
	count, maxTS, err := h.matchStats(c.Request.Context(), uid)
	if err != nil {
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d"`, view, uid, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

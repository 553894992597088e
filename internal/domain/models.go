// Package domain defines the persistence models for profiles, bot sessions,
// meeting proposals, check-ins and waves. These types are mapped with GORM
// and are shared across the repository, service and HTTP layers.
package domain

import "time"

// Direction is the travel direction of a rider along the line.
type Direction string

const (
	DirectionNorth Direction = "north"
	DirectionSouth Direction = "south"
)

// DefaultDirection is assumed whenever a caller does not state one.
const DefaultDirection = DirectionSouth

// ParseDirection normalizes s into a Direction. An empty string yields
// DefaultDirection; anything other than north/south is rejected.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case "":
		return DefaultDirection, true
	case DirectionNorth, DirectionSouth:
		return Direction(s), true
	}
	return "", false
}

// MatchStatus is the lifecycle state of a meeting proposal.
type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchRejected MatchStatus = "rejected"
	MatchExpired  MatchStatus = "expired"
)

// Profile is the public face of a user. It is created lazily on first
// sign-in and only its owner may change it.
//
// Fields:
//   - ID: the identity provider's user id.
//   - Nickname: display name, defaults to the email local-part.
//   - Description: optional free text.
//   - Interests: ordered, de-duplicated list; its length is the specificity.
type Profile struct {
	ID          string    `json:"id"          gorm:"type:varchar(64);primaryKey"`
	Nickname    string    `json:"nickname"    gorm:"type:varchar(64);not null"`
	Description *string   `json:"description" gorm:"type:text"`
	Interests   []string  `json:"interests"   gorm:"type:text;serializer:json"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// BotSession records where a bot (or its user) currently is. There is at
// most one session per user; the staleness sweep deletes sessions whose
// heartbeat is too old.
type BotSession struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_bot_sessions_user"`
	StationID     string    `json:"station_id"     gorm:"type:varchar(64);not null;index:idx_bot_sessions_station"`
	Direction     Direction `json:"direction"      gorm:"type:varchar(8);not null;default:'south'"`
	LastHeartbeat time.Time `json:"last_heartbeat" gorm:"not null;index:idx_bot_sessions_heartbeat"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for BotSession.
func (BotSession) TableName() string { return "bot_sessions" }

// Match is a directional meetup proposal from UserAID (proposer) to
// UserBID (target). IdempotencyKey is globally unique so a retried propose
// resolves to the row created by the first attempt.
type Match struct {
	ID             string      `json:"id"              gorm:"type:char(36);primaryKey"`
	UserAID        string      `json:"user_a_id"       gorm:"type:varchar(64);not null;index:idx_matches_user_a"`
	UserBID        string      `json:"user_b_id"       gorm:"type:varchar(64);not null;index:idx_matches_user_b"`
	StationID      string      `json:"station_id"      gorm:"type:varchar(64);not null"`
	MeetingStation *string     `json:"meeting_station" gorm:"type:varchar(64)"`
	VenueName      *string     `json:"venue_name"      gorm:"type:varchar(128)"`
	IdempotencyKey string      `json:"idempotency_key" gorm:"type:varchar(255);not null;uniqueIndex:ux_matches_idempotency_key"`
	Status         MatchStatus `json:"status"          gorm:"type:varchar(16);not null;index;check:status IN ('pending','accepted','rejected','expired')"`
	CreatedAt      time.Time   `json:"created_at"      gorm:"index"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Match.
func (Match) TableName() string { return "matches" }

// BotAPIKey authenticates a bot on behalf of its owner. Only the SHA-256
// hash of the secret is stored; KeyPrefix lets the owner tell keys apart.
// Revoking a key flips IsActive instead of deleting the row.
type BotAPIKey struct {
	ID         string     `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID     string     `json:"user_id"      gorm:"type:varchar(64);not null;index"`
	Name       string     `json:"name"         gorm:"type:varchar(128);not null"`
	KeyHash    string     `json:"-"            gorm:"type:char(64);not null;uniqueIndex:ux_bot_api_keys_hash"`
	KeyPrefix  string     `json:"key_prefix"   gorm:"type:varchar(16);not null"`
	IsActive   bool       `json:"is_active"    gorm:"not null;default:true"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName returns the database table name for BotAPIKey.
func (BotAPIKey) TableName() string { return "bot_api_keys" }

// CheckIn is a time-bounded presence announcement at a station.
type CheckIn struct {
	ID          string    `json:"id"          gorm:"type:char(26);primaryKey"`
	UserID      string    `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	StationID   string    `json:"station_id"  gorm:"type:varchar(64);not null;index:idx_check_ins_station_created,priority:1"`
	Nickname    string    `json:"nickname"    gorm:"type:varchar(64);not null"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"  gorm:"index:idx_check_ins_station_created,priority:2"`
}

// TableName returns the database table name for CheckIn.
func (CheckIn) TableName() string { return "check_ins" }

// Signal is a one-way wave from one user to another at a station.
type Signal struct {
	ID         string    `json:"id"           gorm:"type:char(26);primaryKey"`
	FromUserID string    `json:"from_user_id" gorm:"type:varchar(64);not null"`
	ToUserID   string    `json:"to_user_id"   gorm:"type:varchar(64);not null;index:idx_signals_to_created,priority:1"`
	StationID  string    `json:"station_id"   gorm:"type:varchar(64);not null"`
	Message    string    `json:"message"      gorm:"type:varchar(280);not null"`
	CreatedAt  time.Time `json:"created_at"   gorm:"index:idx_signals_to_created,priority:2"`
}

// TableName returns the database table name for Signal.
func (Signal) TableName() string { return "signals" }

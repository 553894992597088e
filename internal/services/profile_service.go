// Package services – ProfileService
//
// This file implements ProfileService. Profiles are created lazily the first
// time a user authenticates, seeded from the token's nickname metadata or the
// email local-part, and afterwards only their owner may change them.
//
// Text fields are NFC-normalised; interests are trimmed and de-duplicated
// case-insensitively, keeping the first spelling.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/ltrain-backend/internal/domain"
	"github.com/tbourn/ltrain-backend/internal/repo"
)

// Profile field limits.
const (
	MaxNicknameRunes    = 32
	MaxDescriptionRunes = 280
	MaxInterests        = 20
	MaxInterestRunes    = 32

	defaultNickname = "rider"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// ProfileUpdate is a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	Nickname    *string
	Description *string
	Interests   *[]string
}

// ProfileService implements the profile use-cases.
type ProfileService struct {
	DB *gorm.DB
}

// Ensure returns the profile of userID, creating it on first use.
func (s *ProfileService) Ensure(ctx context.Context, userID, email, nickname string) (*domain.Profile, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	return repo.EnsureProfile(ctx, s.DB, &domain.Profile{
		ID:        userID,
		Nickname:  DefaultNickname(nickname, email),
		Interests: []string{},
	})
}

// Get returns the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// Update applies u to the caller's own profile.
func (s *ProfileService) Update(ctx context.Context, userID string, u ProfileUpdate) (*domain.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.Nickname != nil {
		nick := normalizeText(*u.Nickname)
		if nick == "" || utf8.RuneCountInString(nick) > MaxNicknameRunes {
			return nil, ErrInvalidProfile
		}
		p.Nickname = nick
	}
	if u.Description != nil {
		desc := normalizeText(*u.Description)
		if utf8.RuneCountInString(desc) > MaxDescriptionRunes {
			return nil, ErrInvalidProfile
		}
		if desc == "" {
			p.Description = nil
		} else {
			p.Description = &desc
		}
	}
	if u.Interests != nil {
		interests, err := NormalizeInterests(*u.Interests)
		if err != nil {
			return nil, err
		}
		p.Interests = interests
	}

	if err := repo.SaveProfile(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultNickname picks the initial nickname: the token's nickname, else the
// email local-part, else "rider".
func DefaultNickname(nickname, email string) string {
	if n := normalizeText(nickname); n != "" {
		return clipRunes(n, MaxNicknameRunes)
	}
	local := email
	if i := strings.Index(email, "@"); i > 0 {
		local = email[:i]
	}
	if n := normalizeText(local); n != "" {
		return clipRunes(n, MaxNicknameRunes)
	}
	return defaultNickname
}

// NormalizeInterests trims, NFC-normalises and case-insensitively
// de-duplicates in, dropping empty entries.
func NormalizeInterests(in []string) ([]string, error) {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		v := normalizeText(raw)
		if v == "" {
			continue
		}
		if utf8.RuneCountInString(v) > MaxInterestRunes {
			return nil, ErrInvalidProfile
		}
		k := fold.String(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	if len(out) > MaxInterests {
		return nil, ErrInvalidProfile
	}
	return out, nil
}

// normalizeText NFC-normalises s, trims it and collapses inner whitespace.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) > n {
		return string([]rune(s)[:n])
	}
	return s
}

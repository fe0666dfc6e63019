package models

import "strings"

// UserTier is the usage class of a client. It decides how many model calls
// are allowed and whether the allowance renews every calendar day.
type UserTier string

const (
	TierAnonymous UserTier = "anonymous"
	TierBasic     UserTier = "basic"
	TierPremium   UserTier = "premium"
)

// ResponseLimit returns the number of model responses allowed for the tier.
// Anonymous users get a lifetime allowance, the others a daily one.
func (t UserTier) ResponseLimit() int {
	switch t {
	case TierBasic:
		return 8
	case TierPremium:
		return 18
	default:
		return 3
	}
}

// IsPeriodic reports whether the tier's allowance resets at each day boundary.
func (t UserTier) IsPeriodic() bool {
	return t == TierBasic || t == TierPremium
}

// Valid reports whether t is one of the known tiers.
func (t UserTier) Valid() bool {
	switch t {
	case TierAnonymous, TierBasic, TierPremium:
		return true
	}
	return false
}

// ParseUserTier parses a stored tier name. Unknown values map to TierAnonymous.
func ParseUserTier(s string) UserTier {
	t := UserTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return TierAnonymous
	}
	return t
}

// TierSignal is what the auth/subscription collaborator reports about a user.
type TierSignal struct {
	IsAuthenticated bool `json:"is_authenticated"`
	IsAnonymous     bool `json:"is_anonymous"`
	IsPro           bool `json:"is_pro"`
}

// Tier maps the signal onto a UserTier. A subscription wins over everything else.
func (s TierSignal) Tier() UserTier {
	switch {
	case s.IsPro:
		return TierPremium
	case s.IsAuthenticated && !s.IsAnonymous:
		return TierBasic
	default:
		return TierAnonymous
	}
}

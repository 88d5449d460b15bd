package identity

import gametypes "github.com/wordgame/fictionary/pkg/game/types"

// Lookup resolves display metadata for participants. It is rendering-only:
// no game-state decision may depend on it.
type Lookup interface {
	DisplayName(user gametypes.PlayerID) string
	IconURL(user gametypes.PlayerID) string
}

// Profile is one participant's display metadata.
type Profile struct {
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

// StaticLookup serves profiles from a fixed table, falling back to the raw
// ID for unknown participants.
type StaticLookup struct {
	profiles map[gametypes.PlayerID]Profile
}

func NewStaticLookup(profiles map[gametypes.PlayerID]Profile) *StaticLookup {
	if profiles == nil {
		profiles = make(map[gametypes.PlayerID]Profile)
	}
	return &StaticLookup{profiles: profiles}
}

func (l *StaticLookup) DisplayName(user gametypes.PlayerID) string {
	if p, ok := l.profiles[user]; ok && p.Name != "" {
		return p.Name
	}
	return string(user)
}

func (l *StaticLookup) IconURL(user gametypes.PlayerID) string {
	if p, ok := l.profiles[user]; ok {
		return p.IconURL
	}
	return ""
}

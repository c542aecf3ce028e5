package protocol

import "github.com/epochgc/gcpolicy/core"

// StatusPayload for status messages
type StatusPayload struct {
	Setting        SettingPayload `json:"setting"`
	CollectAllowed bool           `json:"collectAllowed"` // whether a cycle may start right now
	Depth          int            `json:"depth"`          // active scopes
	Seq            uint64         `json:"seq"`            // change sequence of the cell
}

// SettingToPayload renders a setting for the wire
func SettingToPayload(s core.Setting[core.Collect]) SettingPayload {
	return SettingPayload{
		Value:    s.Value.String(),
		Strength: StrengthToPayload(s.Strength),
	}
}

// StrengthToPayload renders a strength for the wire
func StrengthToPayload(s core.Strength[core.Collect]) StrengthPayload {
	payload := StrengthPayload{Level: s.Kind().String()}
	if threshold, ok := s.Threshold(); ok {
		payload.Threshold = threshold.String()
	}
	return payload
}

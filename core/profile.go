package core

import "encoding/json"

// Profile is the minimal user view returned to an authenticated wallet.
type Profile struct {
	PublicAddress string        `json:"publicAddress"`
	Username      string        `json:"username"`
	Config        ProfileConfig `json:"config"`
}

// ProfileConfig is read by downstream tools to decide feature gating.
type ProfileConfig struct {
	Gating  Gating            `json:"gating"`
	Layouts []json.RawMessage `json:"layouts"`
}

type Gating struct {
	Enabled bool    `json:"enabled"`
	Reason  *string `json:"reason"`
}

// AccessDecision answers whether a client may use the service at all.
type AccessDecision struct {
	Access bool    `json:"access"`
	Reason *string `json:"reason"`
}

// ShortAddress renders an address as first4…last4 for display.
func ShortAddress(address string) string {
	r := []rune(address)
	if len(r) <= 10 {
		return address
	}
	return string(r[:4]) + "…" + string(r[len(r)-4:])
}

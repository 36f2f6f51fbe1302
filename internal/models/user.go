package models

// Identity is the authenticated caller as reported by the identity verifier.
type Identity struct {
	// UserID is the stable account identifier (the Roblox id for web clients).
	UserID string `json:"userId"`
	// DisplayName is the name shown next to the stake.
	DisplayName string `json:"displayName"`
}

// IsZero reports whether no identity was resolved.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

package models

import "encoding/json"

// Side is a coin face. The wire format uses the single letters the web client sends.
type Side string

const (
	SideNone  Side = ""
	SideHeads Side = "H"
	SideTails Side = "T"
)

// ParseSide keeps exactly "H" or "T"; anything else means no preference.
func ParseSide(v string) Side {
	switch Side(v) {
	case SideHeads, SideTails:
		return Side(v)
	}
	return SideNone
}

// Opposite returns the other face. SideNone has no opposite.
func (s Side) Opposite() Side {
	switch s {
	case SideHeads:
		return SideTails
	case SideTails:
		return SideHeads
	}
	return SideNone
}

func (s Side) String() string {
	switch s {
	case SideHeads:
		return "Heads"
	case SideTails:
		return "Tails"
	}
	return "none"
}

// MarshalJSON writes null for SideNone, matching what clients already expect.
func (s Side) MarshalJSON() ([]byte, error) {
	if s == SideNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON is lenient: unknown values, numbers and null all become SideNone.
func (s *Side) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = SideNone
		return nil
	}
	*s = ParseSide(raw)
	return nil
}

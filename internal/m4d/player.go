package m4d

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Variable names written by m4dsync.
const (
	VarReseller                     = "M4DS_Reseller"
	VarISP                          = "M4DS_ISP"
	VarSector                       = "M4DS_Sector"
	VarStreamingHotMuted            = "M4DS_StreamingHot_Muted"
	VarStreamingTripleMuted         = "M4DS_StreamingTriple_Muted"
	VarStreamingVerticalHotMuted    = "M4DS_StreamingVerticalHot_Muted"
	VarStreamingVerticalTripleMuted = "M4DS_StreamingVerticalTriple_Muted"
)

// StreamingVariables lists the four streaming-mute variables in write order.
func StreamingVariables() []string {
	return []string{VarStreamingHotMuted, VarStreamingTripleMuted, VarStreamingVerticalHotMuted, VarStreamingVerticalTripleMuted}
}

// Variable is a named player setting.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Coordinates holds the player location attributes m4dsync touches.
type Coordinates struct {
	City string `json:"city"`
}

// Player is a display device record. ID is zero when the directory returned
// neither playerId nor id.
type Player struct {
	ID          int64
	Identifier  string
	Name        string
	Coordinates Coordinates
	Variables   []Variable
}

// Label returns the trimmed identifier, falling back to the name.
func (p Player) Label() string {
	if id := strings.TrimSpace(p.Identifier); id != "" {
		return id
	}
	return strings.TrimSpace(p.Name)
}

// Variable returns the value of the last variable called name.
func (p Player) Variable(name string) (string, bool) {
	value, found := "", false
	for _, v := range p.Variables {
		if v.Name == name {
			value, found = v.Value, true
		}
	}
	return value, found
}

type playerWire struct {
	PlayerID    flexibleID      `json:"playerId"`
	ID          flexibleID      `json:"id"`
	Identifier  *string         `json:"identifier"`
	Name        *string         `json:"name"`
	Coordinates *coordsWire     `json:"coordinates"`
	Variables   json.RawMessage `json:"variables"`
}

type coordsWire struct {
	City *string `json:"city"`
}

// UnmarshalJSON accepts playerId or id, and variables given as a list, a
// single object, or null.
func (p *Player) UnmarshalJSON(data []byte) error {
	var wire playerWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Player{ID: int64(wire.PlayerID)}
	if p.ID == 0 {
		p.ID = int64(wire.ID)
	}
	p.Identifier = deref(wire.Identifier)
	p.Name = deref(wire.Name)
	if wire.Coordinates != nil {
		p.Coordinates.City = deref(wire.Coordinates.City)
	}
	vars, err := decodeVariables(wire.Variables)
	if err != nil {
		return fmt.Errorf("decode variables: %w", err)
	}
	p.Variables = vars
	return nil
}

// MarshalJSON renders the player in the directory's wire shape.
func (p Player) MarshalJSON() ([]byte, error) {
	vars := p.Variables
	if vars == nil {
		vars = []Variable{}
	}
	return json.Marshal(struct {
		PlayerID    int64       `json:"playerId"`
		Identifier  string      `json:"identifier"`
		Name        string      `json:"name"`
		Coordinates Coordinates `json:"coordinates"`
		Variables   []Variable  `json:"variables"`
	}{p.ID, p.Identifier, p.Name, p.Coordinates, vars})
}

func decodeVariables(raw json.RawMessage) ([]Variable, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	case '{':
		items = []json.RawMessage{raw}
	default:
		return nil, nil
	}
	vars := make([]Variable, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var entry struct {
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, err
		}
		vars = append(vars, Variable{Name: entry.Name, Value: scalarString(entry.Value)})
	}
	return vars, nil
}

// scalarString renders a JSON scalar as text; null becomes "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// flexibleID decodes an integer given as a JSON number, an integral float
// or a numeric string. Anything else decodes to zero, the "no id" value.
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	*f = 0
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		*f = flexibleID(n)
		return nil
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil && v == math.Trunc(v) && math.Abs(v) < 1<<63 {
		*f = flexibleID(int64(v))
	}
	return nil
}

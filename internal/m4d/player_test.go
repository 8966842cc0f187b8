package m4d_test

import (
	"encoding/json"
	"testing"

	"m4dsync/internal/m4d"
)

func TestPlayerDecodeShapes(t *testing.T) {
	cases := []struct {
		name     string
		payload  string
		wantID   int64
		wantVars int
		wantCity string
	}{
		{"list", `{"playerId": 5, "id": 9, "coordinates": {"city": "HAIFA"}, "variables": [{"name": "M4DS_ISP", "value": "HOT"}, "junk"]}`, 5, 1, "HAIFA"},
		{"single object", `{"id": 9, "variables": {"name": "M4DS_ISP", "value": "HOT"}}`, 9, 1, ""},
		{"null variables", `{"id": "12", "variables": null, "coordinates": null}`, 12, 0, ""},
		{"zero playerId falls back", `{"playerId": 0, "id": 3}`, 3, 0, ""},
		{"no id", `{"identifier": "x"}`, 0, 0, ""},
		{"integral float id", `{"playerId": 2.0}`, 2, 0, ""},
		{"fractional id", `{"playerId": 2.5}`, 0, 0, ""},
		{"non-numeric id", `{"playerId": "n/a", "id": 4}`, 4, 0, ""},
		{"object id", `{"playerId": {"v": 1}}`, 0, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p m4d.Player
			if err := json.Unmarshal([]byte(tc.payload), &p); err != nil {
				t.Fatalf("Unmarshal returned error: %v", err)
			}
			if p.ID != tc.wantID || len(p.Variables) != tc.wantVars || p.Coordinates.City != tc.wantCity {
				t.Fatalf("decoded %+v", p)
			}
		})
	}
}

func TestPlayerVariableValues(t *testing.T) {
	var p m4d.Player
	payload := `{"id": 1, "variables": [
		{"name": "M4DS_Reseller", "value": "OLD"},
		{"name": "M4DS_Reseller", "value": "NEW"},
		{"name": "M4DS_StreamingHot_Muted", "value": true},
		{"name": "M4DS_ISP", "value": null}
	]}`
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if v, ok := p.Variable(m4d.VarReseller); !ok || v != "NEW" {
		t.Fatalf("expected last reseller value, got %q %v", v, ok)
	}
	if v, _ := p.Variable(m4d.VarStreamingHotMuted); v != "true" {
		t.Fatalf("expected bool rendered as text, got %q", v)
	}
	if v, ok := p.Variable(m4d.VarISP); !ok || v != "" {
		t.Fatalf("expected present empty ISP, got %q %v", v, ok)
	}
	if _, ok := p.Variable(m4d.VarSector); ok {
		t.Fatal("expected sector to be absent")
	}
}

func TestPlayerLabel(t *testing.T) {
	if got := (m4d.Player{Identifier: "  200010-LH  ", Name: "n"}).Label(); got != "200010-LH" {
		t.Fatalf("Label = %q", got)
	}
	if got := (m4d.Player{Name: " 200010 screen "}).Label(); got != "200010 screen" {
		t.Fatalf("Label = %q", got)
	}
}

func TestPlayerMarshalRoundTrip(t *testing.T) {
	in := m4d.Player{ID: 4, Identifier: "id", Coordinates: m4d.Coordinates{City: "TLV"}, Variables: []m4d.Variable{{Name: "a", Value: "b"}}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	var out m4d.Player
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if out.ID != 4 || out.Coordinates.City != "TLV" || len(out.Variables) != 1 {
		t.Fatalf("round trip mismatch %+v", out)
	}
}

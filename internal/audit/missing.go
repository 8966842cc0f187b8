package audit

import (
	"strings"

	"m4dsync/internal/m4d"
)

// Attribute names reported by MissingAttributes.
const (
	AttrCity     = "city"
	AttrReseller = "reseller"
	AttrISP      = "isp"
)

// MissingAttributes lists what a player lacks: an empty city, reseller or
// ISP, or any streaming variable that is absent or empty. The result is nil
// for a complete player.
func MissingAttributes(p m4d.Player) []string {
	var missing []string
	if strings.TrimSpace(p.Coordinates.City) == "" {
		missing = append(missing, AttrCity)
	}
	if value, _ := p.Variable(m4d.VarReseller); value == "" {
		missing = append(missing, AttrReseller)
	}
	if value, _ := p.Variable(m4d.VarISP); value == "" {
		missing = append(missing, AttrISP)
	}
	for _, name := range m4d.StreamingVariables() {
		if value, ok := p.Variable(name); !ok || value == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

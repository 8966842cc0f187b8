// Package players selects the directory players that belong to a site and
// classifies them by screen orientation tokens.
package players

import (
	"regexp"
	"strings"

	"m4dsync/internal/m4d"
)

// Class is the orientation classification of a player identifier.
type Class int

const (
	Other Class = iota
	LHOnly
	PVOnly
	Combined
)

func (c Class) String() string {
	switch c {
	case LHOnly:
		return "lh_only"
	case PVOnly:
		return "pv_only"
	case Combined:
		return "combined"
	default:
		return "other"
	}
}

// SiteContext records which classes appear among a site's players.
type SiteContext struct {
	AnyLHOnly   bool
	AnyPVOnly   bool
	AnyCombined bool
}

// Select keeps players whose identifier or name contains siteID, in input order.
func Select(all []m4d.Player, siteID string) []m4d.Player {
	if siteID == "" {
		return nil
	}
	var selected []m4d.Player
	for _, p := range all {
		if strings.Contains(p.Identifier, siteID) || strings.Contains(p.Name, siteID) {
			selected = append(selected, p)
		}
	}
	return selected
}

// Classify uppercases identifier and checks the combined tokens before the
// standalone LH and PV markers. Identifiers with both markers but no combined
// token are Other.
func Classify(identifier string) Class {
	id := strings.ToUpper(identifier)
	hasLH := strings.Contains(id, "LH")
	hasPV := strings.Contains(id, "PV")
	switch {
	case strings.Contains(id, "PV_LH") || strings.Contains(id, "LH_PV"):
		return Combined
	case hasLH && !hasPV:
		return LHOnly
	case hasPV && !hasLH:
		return PVOnly
	default:
		return Other
	}
}

// BuildContext reduces the classes of players into a SiteContext.
func BuildContext(selected []m4d.Player) SiteContext {
	var ctx SiteContext
	for _, p := range selected {
		switch Classify(p.Label()) {
		case Combined:
			ctx.AnyCombined = true
		case LHOnly:
			ctx.AnyLHOnly = true
		case PVOnly:
			ctx.AnyPVOnly = true
		}
	}
	return ctx
}

var (
	leadingSiteNumber = regexp.MustCompile(`^(\d{6})`)
	anySiteNumber     = regexp.MustCompile(`\b(\d{6})\b`)
)

// ExtractSiteNumber returns the leading six digits of identifier, else the
// first standalone six-digit run.
func ExtractSiteNumber(identifier string) (string, bool) {
	if m := leadingSiteNumber.FindStringSubmatch(strings.TrimSpace(identifier)); m != nil {
		return m[1], true
	}
	if m := anySiteNumber.FindStringSubmatch(identifier); m != nil {
		return m[1], true
	}
	return "", false
}

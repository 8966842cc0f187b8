// Package streaming decides the four streaming-mute variables for a player
// from its own classification, its identifier suffix, and which player
// classes exist at its site.
package streaming

import (
	"strconv"
	"strings"

	"m4dsync/internal/m4d"
	"m4dsync/internal/players"
)

// Flags is the streaming-mute assignment for one player. At most one field
// is true.
type Flags struct {
	Hot            bool
	Triple         bool
	VerticalHot    bool
	VerticalTriple bool
}

// Count returns the number of true flags.
func (f Flags) Count() int {
	n := 0
	for _, v := range []bool{f.Hot, f.Triple, f.VerticalHot, f.VerticalTriple} {
		if v {
			n++
		}
	}
	return n
}

// Variables renders the flags as directory variables in the fixed order
// Hot, Triple, VerticalHot, VerticalTriple.
func (f Flags) Variables() []m4d.Variable {
	return []m4d.Variable{
		{Name: m4d.VarStreamingHotMuted, Value: strconv.FormatBool(f.Hot)},
		{Name: m4d.VarStreamingTripleMuted, Value: strconv.FormatBool(f.Triple)},
		{Name: m4d.VarStreamingVerticalHotMuted, Value: strconv.FormatBool(f.VerticalHot)},
		{Name: m4d.VarStreamingVerticalTripleMuted, Value: strconv.FormatBool(f.VerticalTriple)},
	}
}

// String renders the true flag, or "none".
func (f Flags) String() string {
	switch {
	case f.Hot:
		return "hot"
	case f.Triple:
		return "triple"
	case f.VerticalHot:
		return "vertical_hot"
	case f.VerticalTriple:
		return "vertical_triple"
	default:
		return "none"
	}
}

// Decide computes the flags for one player.
//
// When the site has a combined player, only combined players get a flag: the
// non-vertical one when PV-only players are the sole other class, the
// vertical one otherwise. Without a combined player, LH-only players get the
// non-vertical flag when both LH-only and PV-only players are present. The
// suffix -H selects Hot, -T selects Triple; any other suffix sets nothing.
func Decide(identifier string, site players.SiteContext, class players.Class) Flags {
	id := strings.ToUpper(identifier)
	endsH := strings.HasSuffix(id, "-H")
	endsT := strings.HasSuffix(id, "-T")

	var flags Flags
	if site.AnyCombined {
		if class != players.Combined {
			return flags
		}
		alonePV := site.AnyPVOnly && !site.AnyLHOnly
		if alonePV {
			flags.Hot, flags.Triple = bySuffix(endsH, endsT)
			return flags
		}
		// alone LH-only, or both or neither alone class: vertical
		flags.VerticalHot, flags.VerticalTriple = bySuffix(endsH, endsT)
		return flags
	}

	if site.AnyLHOnly && site.AnyPVOnly && class == players.LHOnly {
		flags.Hot, flags.Triple = bySuffix(endsH, endsT)
	}
	return flags
}

func bySuffix(endsH, endsT bool) (hot, triple bool) {
	if endsH {
		return true, false
	}
	return false, endsT
}

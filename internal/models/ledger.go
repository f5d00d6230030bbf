package models

import (
	"fmt"
	"sort"
)

// Ledger is a sheet tracking one subscription type's billing history.
type Ledger struct {
	Type  string // command choice value, e.g. "vps"
	Name  string // display name
	Emoji string
	Sheet string // sheet (tab) name in the spreadsheet
	Color int    // embed colour used for read-only replies

	// Bill summary cells: SpecialBillCell is shown to the configured
	// special user, DefaultBillCell to everyone else.
	SpecialBillCell string
	DefaultBillCell string
}

var ledgers = map[string]Ledger{
	"google": {
		Type:            "google",
		Name:            "Google Workspace",
		Emoji:           "☁️",
		Sheet:           "Google",
		Color:           0x4285F4,
		SpecialBillCell: "F15",
		DefaultBillCell: "D15",
	},
	"vps": {
		Type:            "vps",
		Name:            "VPS",
		Emoji:           "🖥️",
		Sheet:           "VPS",
		Color:           0x5865F2,
		SpecialBillCell: "G15",
		DefaultBillCell: "E15",
	},
	"domain": {
		Type:            "domain",
		Name:            "Domain",
		Emoji:           "🌐",
		Sheet:           "Domain",
		Color:           0x34A853,
		SpecialBillCell: "G15",
		DefaultBillCell: "E15",
	},
}

// LookupLedger returns the ledger selected by a type tag.
func LookupLedger(typ string) (Ledger, error) {
	l, ok := ledgers[typ]
	if !ok {
		return Ledger{}, fmt.Errorf("unknown subscription type %q", typ)
	}
	return l, nil
}

// Ledgers returns every known ledger ordered by type tag.
func Ledgers() []Ledger {
	out := make([]Ledger, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// BillCell returns the summary cell shown to username.
func (l Ledger) BillCell(username, specialUser string) string {
	if specialUser != "" && username == specialUser {
		return l.SpecialBillCell
	}
	return l.DefaultBillCell
}

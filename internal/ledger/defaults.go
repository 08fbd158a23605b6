package ledger

import (
	"fmt"

	"igreja/internal/core"
)

// DefaultLeaderCount is the size of the placeholder leader roster.
const DefaultLeaderCount = 25

// DefaultDisciplers is the placeholder discipler roster used when no
// roster is configured.
var DefaultDisciplers = []string{"Pedro e Ana", "Lucas e Sara", "Marcos e Rute", "Tiago e Ester"}

// Roster describes the shape of freshly synthesized ledgers.
type Roster struct {
	Leaders    []string
	Window     []core.Month
	Disciplers []string
	Types      []core.SessionType
}

// DefaultRoster is 25 placeholder leaders over a window of n months and
// the placeholder disciplers for both session types.
func DefaultRoster(window int) Roster {
	return Roster{
		Leaders:    DefaultLeaders(DefaultLeaderCount),
		Window:     core.Window(window),
		Disciplers: append([]string(nil), DefaultDisciplers...),
		Types:      core.SessionTypes(),
	}
}

// DefaultLeaders returns "Líder 01" to "Líder nn".
func DefaultLeaders(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("Líder %02d", i))
	}
	return out
}

// DefaultTithes is every leader for every window month, month-major,
// amount zero and unpaid.
func DefaultTithes(r Roster) []core.TitheRecord {
	rows := make([]core.TitheRecord, 0, len(r.Window)*len(r.Leaders))
	for _, m := range r.Window {
		for _, l := range r.Leaders {
			rows = append(rows, core.TitheRecord{Month: m, Leader: l, Paid: core.NotPaid})
		}
	}
	return rows
}

// DefaultAttendance is the full cross product of the twelve months, the
// disciplers and the session types with zero counters.
func DefaultAttendance(r Roster) []core.AttendanceRecord {
	types := r.Types
	if len(types) == 0 {
		types = core.SessionTypes()
	}
	rows := make([]core.AttendanceRecord, 0, 12*len(r.Disciplers)*len(types))
	for _, m := range core.Months() {
		for _, d := range r.Disciplers {
			for _, t := range types {
				rows = append(rows, core.AttendanceRecord{Month: m, Discipler: d, Type: t})
			}
		}
	}
	return rows
}

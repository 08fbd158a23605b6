package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"igreja/internal/core"
)

// Column headers of the stored tables.
const (
	ColMonth     = "Mês"
	ColLeader    = "Líder"
	ColAmount    = "Valor"
	ColPaid      = "Pago"
	ColDiscipler = "Discipulador"
	ColType      = "Tipo"
)

var errMissingColumn = errors.New("missing column")

// TitheHeader is the header row of the tithe table.
func TitheHeader() []string {
	return []string{ColMonth, ColLeader, ColAmount, ColPaid}
}

// AttendanceHeader is the header row of the attendance table:
// Mês, Discipulador, Tipo, then S1_ME, S1_FA, S1_VI through S5_VI.
func AttendanceHeader() []string {
	h := []string{ColMonth, ColDiscipler, ColType}
	for i := 1; i <= core.SlotsPerMonth; i++ {
		for _, k := range core.CounterKinds() {
			h = append(h, SlotColumn(i, k))
		}
	}
	return h
}

// SlotColumn names the column of counter kind in slot i (1-based).
func SlotColumn(i int, kind core.CounterKind) string {
	return fmt.Sprintf("S%d_%s", i, kind)
}

// EncodeTithes renders rows as a table with a header row.
func EncodeTithes(rows []core.TitheRecord) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, TitheHeader())
	for _, r := range rows {
		out = append(out, []string{r.Month.String(), r.Leader, r.Amount.String(), string(r.Paid)})
	}
	return out
}

// EncodeAttendance renders rows as a table with a header row.
func EncodeAttendance(rows []core.AttendanceRecord) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, AttendanceHeader())
	for _, r := range rows {
		rec := []string{r.Month.String(), r.Discipler, string(r.Type)}
		for _, s := range r.Slots {
			for _, k := range core.CounterKinds() {
				rec = append(rec, strconv.Itoa(s.Value(k)))
			}
		}
		out = append(out, rec)
	}
	return out
}

// DecodeTithes parses a tithe table. Columns are located by header name.
// Blank rows are skipped, an empty amount reads as zero and an empty paid
// cell as "Não".
func DecodeTithes(table [][]string) ([]core.TitheRecord, error) {
	if len(table) == 0 {
		return nil, parseErr(Tithes, 0, "", errors.New("empty table"))
	}
	cols := indexColumns(table[0])
	for _, c := range TitheHeader() {
		if _, ok := cols[c]; !ok {
			return nil, parseErr(Tithes, 1, c, errMissingColumn)
		}
	}

	rows := make([]core.TitheRecord, 0, len(table)-1)
	for i, rec := range table[1:] {
		if blank(rec) {
			continue
		}
		line := i + 2
		var r core.TitheRecord
		var err error
		if r.Month, err = core.ParseMonth(cell(rec, cols[ColMonth])); err != nil {
			return nil, parseErr(Tithes, line, ColMonth, err)
		}
		r.Leader = cell(rec, cols[ColLeader])
		if r.Leader == "" {
			return nil, parseErr(Tithes, line, ColLeader, core.ErrEmptyLeader)
		}
		if v := cell(rec, cols[ColAmount]); v != "" {
			if r.Amount, err = core.ParseMoney(v); err != nil {
				return nil, parseErr(Tithes, line, ColAmount, fmt.Errorf("%w: %q", err, v))
			}
		}
		r.Paid = core.NotPaid
		if v := cell(rec, cols[ColPaid]); v != "" {
			if r.Paid, err = core.ParsePaid(v); err != nil {
				return nil, parseErr(Tithes, line, ColPaid, err)
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// DecodeAttendance parses an attendance table. A header without the
// discipler column is ErrSchemaMismatch; missing slot columns read as zero.
func DecodeAttendance(table [][]string) ([]core.AttendanceRecord, error) {
	if len(table) == 0 {
		return nil, ErrSchemaMismatch
	}
	cols := indexColumns(table[0])
	if _, ok := cols[ColDiscipler]; !ok {
		return nil, ErrSchemaMismatch
	}
	for _, c := range []string{ColMonth, ColType} {
		if _, ok := cols[c]; !ok {
			return nil, parseErr(Attendance, 1, c, errMissingColumn)
		}
	}

	rows := make([]core.AttendanceRecord, 0, len(table)-1)
	for i, rec := range table[1:] {
		if blank(rec) {
			continue
		}
		line := i + 2
		var r core.AttendanceRecord
		var err error
		if r.Month, err = core.ParseMonth(cell(rec, cols[ColMonth])); err != nil {
			return nil, parseErr(Attendance, line, ColMonth, err)
		}
		r.Discipler = cell(rec, cols[ColDiscipler])
		if r.Discipler == "" {
			return nil, parseErr(Attendance, line, ColDiscipler, core.ErrEmptyDiscipler)
		}
		if r.Type, err = core.ParseSessionType(cell(rec, cols[ColType])); err != nil {
			return nil, parseErr(Attendance, line, ColType, err)
		}
		for s := range r.Slots {
			for _, k := range core.CounterKinds() {
				name := SlotColumn(s+1, k)
				idx, ok := cols[name]
				if !ok {
					continue
				}
				n, err := ParseCounter(cell(rec, idx))
				if err != nil {
					return nil, parseErr(Attendance, line, name, err)
				}
				setCounter(&r.Slots[s], k, n)
			}
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// ParseCounter reads a counter in [0, core.MaxCounter]. Spreadsheet float
// spellings such as "3.0" are accepted when integral; empty reads as 0.
func ParseCounter(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	switch {
	case err == nil:
		if n < 0 || n > core.MaxCounter {
			return 0, fmt.Errorf("%w: %q", core.ErrInvalidCounter, s)
		}
		return n, nil
	case errors.Is(err, strconv.ErrRange):
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidCounter, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.IsInteger() || d.GreaterThan(decimal.NewFromInt(core.MaxCounter)) {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidCounter, s)
	}
	return int(d.IntPart()), nil
}

func setCounter(s *core.Slot, kind core.CounterKind, n int) {
	switch kind {
	case core.Members:
		s.Members = n
	case core.Active:
		s.Active = n
	case core.Visitors:
		s.Visitors = n
	}
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

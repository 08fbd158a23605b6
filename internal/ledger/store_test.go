package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreja/internal/core"
	"igreja/internal/ledger"
	"igreja/internal/ledger/memory"
)

func TestLoadTithesDefaultsWhenMissing(t *testing.T) {
	b := memory.New()
	s := ledger.NewStore(b, ledger.DefaultRoster(7), nil)

	rows, err := s.LoadTithes(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 7*ledger.DefaultLeaderCount)
	assert.Equal(t, core.TitheRecord{Month: 1, Leader: "Líder 01", Paid: core.NotPaid}, rows[0])
	assert.Equal(t, "Líder 25", rows[ledger.DefaultLeaderCount-1].Leader)
	assert.Equal(t, core.Month(2), rows[ledger.DefaultLeaderCount].Month, "month-major order")
	assert.Equal(t, 0, b.Writes(), "tithe defaults are not persisted on load")
}

func TestLoadTithesReturnsStoredRowsUnchanged(t *testing.T) {
	table := [][]string{ledger.TitheHeader(), {"Maio", "Só eu", "10.00", "Sim"}}
	s := ledger.NewStore(memory.NewFromTables(table, nil), ledger.DefaultRoster(7), nil)

	rows, err := s.LoadTithes(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Só eu", rows[0].Leader)
}

func TestLoadTithesParseErrorIsSurfaced(t *testing.T) {
	table := [][]string{ledger.TitheHeader(), {"Janeiro", "L1", "muito", "Sim"}}
	b := memory.NewFromTables(table, nil)
	s := ledger.NewStore(b, ledger.DefaultRoster(7), nil)

	rows, err := s.LoadTithes(context.Background())
	require.ErrorIs(t, err, ledger.ErrParse)
	assert.Len(t, rows, 7*ledger.DefaultLeaderCount, "defaults served alongside the error")
	assert.Equal(t, table, b.Table(ledger.Tithes), "unreadable ledger is never overwritten")
}

func TestLoadAttendanceSynthesizesAndPersists(t *testing.T) {
	b := memory.New()
	s := ledger.NewStore(b, ledger.DefaultRoster(7), nil)

	rows, err := s.LoadAttendance(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 12*len(ledger.DefaultDisciplers)*2)
	assert.Equal(t, 1, b.Writes())

	again, err := b.ReadAttendance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestLoadAttendanceResynthesizesOldSchema(t *testing.T) {
	b := memory.NewFromTables(nil, [][]string{{"Mês", "Tipo", "S1_ME"}, {"Janeiro", "Célula", "3"}})
	s := ledger.NewStore(b, ledger.Roster{Disciplers: []string{"A"}, Types: core.SessionTypes()}, nil)

	rows, err := s.LoadAttendance(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 12*2)
	assert.Equal(t, 1, b.Writes())
}

package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreja/internal/amqp"
	"igreja/internal/core"
	"igreja/internal/ledger"
	"igreja/internal/ledger/memory"
)

func seededSource(t *testing.T) *memory.Store {
	t.Helper()
	src := memory.New()
	ctx := context.Background()
	require.NoError(t, src.WriteTithes(ctx, []core.TitheRecord{
		{Month: 1, Leader: "L1", Amount: core.Money{Cents: 10000}, Paid: core.Paid},
		{Month: 1, Leader: "L2", Paid: core.NotPaid},
	}))
	require.NoError(t, src.WriteAttendance(ctx, ledger.DefaultAttendance(ledger.DefaultRoster(12))))
	return src
}

func TestHandleLedgerSavedMirrorsNamedLedger(t *testing.T) {
	src := seededSource(t)
	dst := memory.New()
	w := NewMirrorWorker(src, dst, nil, nil)

	err := w.HandleLedgerSaved(context.Background(), amqp.NewLedgerSavedMessage("tithes", "save", 2))
	require.NoError(t, err)

	assert.Equal(t, src.Table(ledger.Tithes), dst.Table(ledger.Tithes))
	assert.Nil(t, dst.Table(ledger.Attendance), "only the named ledger is mirrored")
}

func TestMirrorAllCopiesBothLedgers(t *testing.T) {
	src := seededSource(t)
	dst := memory.New()
	w := NewMirrorWorker(src, dst, nil, nil)

	require.NoError(t, w.MirrorAll(context.Background()))

	assert.Equal(t, src.Table(ledger.Tithes), dst.Table(ledger.Tithes))
	assert.Equal(t, src.Table(ledger.Attendance), dst.Table(ledger.Attendance))
	assert.Equal(t, 2, dst.Writes())
}

func TestMirrorSkipsUnwrittenLedger(t *testing.T) {
	dst := memory.New()
	w := NewMirrorWorker(memory.New(), dst, nil, nil)

	require.NoError(t, w.MirrorAll(context.Background()))
	assert.Zero(t, dst.Writes())
}

func TestMirrorLeavesMirrorAloneOnParseError(t *testing.T) {
	src := memory.NewFromTables([][]string{{"Mês", "Líder", "Valor", "Pago"}, {"Janeiro", "L1", "abc", "Sim"}}, nil)
	dst := memory.New()
	w := NewMirrorWorker(src, dst, nil, nil)

	err := w.MirrorLedger(context.Background(), ledger.Tithes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrParse))
	assert.Zero(t, dst.Writes())
}

func TestMirrorUnknownLedger(t *testing.T) {
	w := NewMirrorWorker(memory.New(), memory.New(), nil, nil)
	err := w.HandleLedgerSaved(context.Background(), &amqp.LedgerSavedMessage{Ledger: "expenses"})
	assert.ErrorIs(t, err, ErrUnknownLedger)
}

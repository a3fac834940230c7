package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"slabcore/internal/router"
	"slabcore/internal/slab"
)

func newTestSlab(t *testing.T) *slab.State {
	t.Helper()
	st := slab.New(slab.Config{
		AccountCapacity: 4, OrderCapacity: 4, PositionCapacity: 4,
		ReservationCapacity: 4, SliceCapacity: 4, AggressorRingSize: 4,
	})
	require.NoError(t, st.Initialize([32]byte{1}, [32]byte{2}, [32]byte{3}, 500, 300, -5, 20, 1000, 2))
	_, err := st.AddInstrument([8]byte{'B', 'T', 'C'}, 1000, 100, 1, 50_000_000)
	require.NoError(t, err)
	_, err = st.EnsureAccount(0)
	require.NoError(t, err)
	return st
}

func TestSaveAndLoadSlab(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	st := newTestSlab(t)
	st.Header.CurrentTS = 12345
	st.BindHold(7, 0)

	require.NoError(t, s.SaveSlab("btc-perp", st))

	restored := slab.New(slab.Config{
		AccountCapacity: 4, OrderCapacity: 4, PositionCapacity: 4,
		ReservationCapacity: 4, SliceCapacity: 4, AggressorRingSize: 4,
	})
	found, err := s.LoadSlab("btc-perp", restored)
	require.NoError(t, err)
	require.True(t, found, "LoadSlab reported missing snapshot")

	require.Equal(t, uint64(12345), restored.Header.CurrentTS)
	require.Equal(t, 1, restored.InstrumentCount)

	_, idx, err := restored.Reservation(7)
	require.NoError(t, err)
	require.Equal(t, uint32(0), idx)
}

func TestLoadSlabMissing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	found, err := s.LoadSlab("nonexistent", slab.New(slab.DefaultConfig()))
	require.NoError(t, err)
	require.False(t, found, "expected no snapshot for nonexistent slab_id")
}

func TestSaveSlabOverwrites(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	st := newTestSlab(t)
	st.Header.CurrentTS = 1
	require.NoError(t, s.SaveSlab("btc-perp", st))
	st.Header.CurrentTS = 2
	require.NoError(t, s.SaveSlab("btc-perp", st))

	restored := slab.New(slab.DefaultConfig())
	_, err = s.LoadSlab("btc-perp", restored)
	require.NoError(t, err)
	require.Equal(t, uint64(2), restored.Header.CurrentTS, "latest save should win")
}

func TestSaveAndLoadRouter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	r := router.NewRegistry([32]byte{9})
	r.LiqFeeBps = 50
	r.Deposit(1, 1_000_000)
	r.Portfolio(1).Holds[42] = router.HoldRef{SlabID: "btc-perp", HoldID: 42}

	require.NoError(t, s.SaveRouter(r))

	restored := router.NewRegistry([32]byte{})
	found, err := s.LoadRouter(restored)
	require.NoError(t, err)
	require.True(t, found, "LoadRouter reported missing snapshot")

	require.Equal(t, [32]byte{9}, restored.Authority)
	require.Equal(t, uint16(50), restored.LiqFeeBps)

	p := restored.Portfolio(1)
	require.Equal(t, int64(1_000_000), p.Equity)
	require.Equal(t, "btc-perp", p.Holds[42].SlabID)
}

func TestLoadRouterMissing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	found, err := s.LoadRouter(router.NewRegistry([32]byte{}))
	require.NoError(t, err)
	require.False(t, found, "expected no snapshot for fresh store dir")
}

package cartsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(key string, price, qty, stock int64) Line {
	return Line{LineKey: key, ProductID: 1, Title: key, UnitPrice: price, Quantity: qty, StockCap: stock}
}

func addLine(l Line) func(Snapshot) Snapshot {
	return func(s Snapshot) Snapshot {
		s.Lines = append(s.Lines, l)
		return s
	}
}

func TestStore_ApplyLocalBumpsVersion(t *testing.T) {
	s := NewStore("JPY")
	assert.Equal(t, int64(0), s.Version())

	v1 := s.ApplyLocal(addLine(line("a", 100, 2, 5)))
	v2 := s.ApplyLocal(addLine(line("b", 50, 1, 5)))

	assert.Equal(t, int64(1), v1)
	assert.Equal(t, int64(2), v2)
	assert.Equal(t, int64(250), s.Subtotal())
	assert.Equal(t, int64(3), s.ItemCount())
	assert.Equal(t, "JPY", s.Currency())
}

func TestStore_ApplyLocalDoesNotLeakMutation(t *testing.T) {
	s := NewStore("JPY")
	s.ApplyLocal(addLine(line("a", 100, 2, 5)))

	lines := s.Lines()
	lines[0].Quantity = 99

	l, _ := s.Line("a")
	assert.Equal(t, int64(2), l.Quantity)
}

func TestStore_NormalizeDropsZeroAndDuplicates(t *testing.T) {
	s := NewStore("JPY")
	s.ApplyLocal(func(sn Snapshot) Snapshot {
		sn.Lines = []Line{line("a", 100, 1, 5), line("b", 100, 0, 5), line("a", 100, 3, 5)}
		return sn
	})

	v := s.View()
	require.Len(t, v.Lines, 1)
	assert.Equal(t, int64(3), v.Lines[0].Quantity)
	assert.Equal(t, int64(300), v.Subtotal)
}

func TestStore_CommitIfCurrent(t *testing.T) {
	s := NewStore("JPY")
	ver := s.ApplyLocal(addLine(line("a", 100, 1, 5)))

	server := Snapshot{Lines: []Line{line("a", 90, 1, 5)}}
	require.True(t, s.CommitIfCurrent(server, ver))

	assert.Equal(t, ver, s.Version())
	assert.Equal(t, int64(90), s.Subtotal())
	assert.Equal(t, "JPY", s.Currency(), "empty currency keeps the session currency")
}

func TestStore_CommitIfCurrentStale(t *testing.T) {
	s := NewStore("JPY")
	first := s.ApplyLocal(addLine(line("a", 100, 1, 5)))
	s.ApplyLocal(addLine(line("b", 100, 1, 5)))

	ok := s.CommitIfCurrent(Snapshot{Lines: []Line{line("a", 100, 1, 5)}}, first)

	assert.False(t, ok)
	assert.Len(t, s.Lines(), 2)
	assert.Equal(t, int64(2), s.Version())
}

func TestStore_SnapshotRollback(t *testing.T) {
	s := NewStore("JPY")
	s.ApplyLocal(addLine(line("a", 100, 1, 5)))

	s.TakeSnapshot()
	assert.True(t, s.HasSnapshot())
	s.ApplyLocal(func(sn Snapshot) Snapshot {
		sn.Lines[0].Quantity = 4
		return sn
	})

	require.True(t, s.Rollback())
	l, _ := s.Line("a")
	assert.Equal(t, int64(1), l.Quantity)
	assert.False(t, s.HasSnapshot())
	assert.Equal(t, int64(3), s.Version(), "rollback advances the version")

	assert.False(t, s.Rollback(), "nothing saved")
}

func TestStore_SnapshotOverwrites(t *testing.T) {
	s := NewStore("JPY")
	s.TakeSnapshot()
	s.ApplyLocal(addLine(line("a", 100, 1, 5)))
	s.TakeSnapshot()
	s.ApplyLocal(addLine(line("b", 100, 1, 5)))

	s.Rollback()
	assert.Len(t, s.Lines(), 1, "only the latest save is kept")
}

func TestStore_ClearSnapshot(t *testing.T) {
	s := NewStore("JPY")
	s.TakeSnapshot()
	s.ApplyLocal(addLine(line("a", 100, 1, 5)))
	s.ClearSnapshot()

	assert.False(t, s.Rollback())
	assert.Len(t, s.Lines(), 1)
}

func TestStore_Pending(t *testing.T) {
	s := NewStore("JPY")
	assert.False(t, s.IsPending("a"))

	s.MarkPending("a")
	s.MarkPending("b")
	assert.True(t, s.IsPending("a"))
	assert.Equal(t, []string{"a", "b"}, s.View().Pending)

	s.ClearPending("a")
	s.ClearPending("never")
	assert.False(t, s.IsPending("a"))
	assert.True(t, s.IsPending("b"))
	assert.Equal(t, int64(0), s.Version(), "pending flags do not touch the version")
}

func TestStore_Reset(t *testing.T) {
	s := NewStore("USD")
	s.ApplyLocal(addLine(line("a", 100, 1, 5)))
	s.TakeSnapshot()
	s.MarkPending("a")

	s.Reset()

	v := s.View()
	assert.Empty(t, v.Lines)
	assert.Empty(t, v.Pending)
	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, int64(2), v.Version)
	assert.False(t, s.HasSnapshot())
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore("JPY")
	ch, unsubscribe := s.Subscribe()

	s.ApplyLocal(addLine(line("a", 100, 1, 5)))
	s.ApplyLocal(addLine(line("b", 100, 1, 5)))

	// まとめて1回
	select {
	case <-ch:
	default:
		t.Fatal("expected a notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce")
	default:
	}

	unsubscribe()
	unsubscribe()
	s.ApplyLocal(addLine(line("c", 100, 1, 5)))
	select {
	case <-ch:
		t.Fatal("unsubscribed channel received a notification")
	default:
	}
}

func TestStore_StaleCommitDoesNotNotify(t *testing.T) {
	s := NewStore("JPY")
	first := s.ApplyLocal(addLine(line("a", 100, 1, 5)))
	s.ApplyLocal(addLine(line("b", 100, 1, 5)))

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.CommitIfCurrent(Snapshot{}, first)
	select {
	case <-ch:
		t.Fatal("stale commit must not notify")
	default:
	}
}

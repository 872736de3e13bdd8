package batch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addrparser/internal/batch"
	"addrparser/internal/domain"
)

func TestSession_AddAssignsOrderAndPending(t *testing.T) {
	d := batch.NewDriver(newFakeParser(), batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a", "b")

	more, err := s.Add([]domain.ParseRequest{{RawAddress: "c"}})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Seq)
	assert.Equal(t, 2, items[1].Seq)
	assert.Equal(t, 3, more[0].Seq)
	for _, it := range s.Items() {
		assert.Equal(t, domain.ItemStatusPending, it.Status)
		assert.Nil(t, it.Result)
	}
	assert.NotEqual(t, items[0].ID, items[1].ID)
}

func TestSession_ReplaceStartsOver(t *testing.T) {
	d := batch.NewDriver(newFakeParser(), batch.DriverConfig{})
	s, old := newSessionWith(t, d, domain.SessionKindEmployee, "a", "b")

	items, err := s.Replace([]domain.ParseRequest{{Employee: &domain.Employee{ID: 7, StayingAddress: "x"}}})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Seq)
	assert.Equal(t, 1, s.Len())
	_, ok := s.Item(old[0].ID)
	assert.False(t, ok)
}

func TestSession_SnapshotCounts(t *testing.T) {
	p := newFakeParser()
	p.fail["b"] = true
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a", "b", "c")
	_, err := s.Add([]domain.ParseRequest{{RawAddress: "d"}})
	require.NoError(t, err)

	items := s.Items()
	_, err = d.ProcessOne(context.Background(), s, items[0].ID)
	require.NoError(t, err)
	_, err = d.ProcessOne(context.Background(), s, items[1].ID)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, s.ID(), snap.ID)
	assert.Equal(t, domain.SessionKindManual, snap.Kind)
	assert.False(t, snap.Running)
	assert.Equal(t, domain.StatusCount{Pending: 2, Done: 1, Failed: 1}, snap.Counts)
	assert.Len(t, snap.Items, 4)
}

func TestSession_ItemsAreCopies(t *testing.T) {
	d := batch.NewDriver(newFakeParser(), batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a")
	_, err := d.ProcessOne(context.Background(), s, items[0].ID)
	require.NoError(t, err)

	got := s.Items()
	got[0].Status = domain.ItemStatusFailed
	got[0].Result.NewAddress = "changed"

	fresh, ok := s.Item(items[0].ID)
	require.True(t, ok)
	assert.Equal(t, domain.ItemStatusDone, fresh.Status)
	assert.Equal(t, "A", fresh.Result.NewAddress)
}

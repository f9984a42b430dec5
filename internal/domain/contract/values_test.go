package contract

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestQuantity(t *testing.T) {
	q, err := NewQuantity(5)
	require.NoError(t, err)

	q, err = q.Add(3)
	require.NoError(t, err)
	require.Equal(t, 8, q.Int())

	q, err = q.Subtract(8)
	require.NoError(t, err)
	require.Equal(t, 0, q.Int())

	_, err = q.Subtract(1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewQuantity(-1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScheduledDate_RejectsNonUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	_, err := NewScheduledDate(time.Now().In(loc).Add(2 * time.Hour))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScheduledDate_RejectsPast(t *testing.T) {
	_, err := NewScheduledDate(time.Now().UTC().Add(-time.Second))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScheduledDate_RehydrateSkipsWallClock(t *testing.T) {
	past := time.Now().UTC().Add(-48 * time.Hour)
	d, err := RehydrateScheduledDate(past)
	require.NoError(t, err)
	require.True(t, d.Time().Equal(past))

	_, err = RehydrateScheduledDate(time.Time{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIdentifiers_RejectNil(t *testing.T) {
	_, err := NewContractID(uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewWarehouseID(uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewManagerID(uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewProductID(uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewLineID(uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIdentifiers_EqualityByValue(t *testing.T) {
	raw := uuid.New()
	a, err := NewContractID(raw)
	require.NoError(t, err)
	b, err := NewContractID(raw)
	require.NoError(t, err)
	require.True(t, a == b)
	require.Equal(t, raw.String(), a.String())
}

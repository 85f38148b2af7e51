package wire

import (
	"testing"

	"distmarket/internal/fp"
	"distmarket/internal/market"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func mustU(t *testing.T, s string) fp.Unsigned {
	t.Helper()
	u, err := fp.ParseUnsigned(s)
	require.NoError(t, err)
	return u
}

func mustS(t *testing.T, s string) fp.Signed {
	t.Helper()
	v, err := fp.ParseSigned(s)
	require.NoError(t, err)
	return v
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := market.Snapshot{
		Mu:          mustS(t, "-42.5"),
		Sigma:       mustU(t, "10"),
		K:           mustU(t, "100"),
		Backing:     mustU(t, "1000"),
		Phase:       market.Settled,
		XFinal:      mustS(t, "12.75"),
		HasXFinal:   true,
		TotalSupply: mustU(t, "1000"),
	}

	b := AppendSnapshot(nil, snap)
	got, n, err := DecodeSnapshot(b)
	require.NoError(t, err)
	require.Equal(t, len(b), n)
	require.Equal(t, snap.Phase, got.Phase)
	require.Equal(t, 0, snap.Mu.Cmp(got.Mu))
	require.Equal(t, 0, snap.Sigma.Cmp(got.Sigma))
	require.Equal(t, 0, snap.K.Cmp(got.K))
	require.Equal(t, 0, snap.Backing.Cmp(got.Backing))
	require.Equal(t, snap.HasXFinal, got.HasXFinal)
	require.Equal(t, 0, snap.XFinal.Cmp(got.XFinal))
	require.Equal(t, 0, snap.TotalSupply.Cmp(got.TotalSupply))
}

func TestSnapshotRoundTripNoXFinal(t *testing.T) {
	snap := market.Snapshot{
		Mu:          mustS(t, "1"),
		Sigma:       mustU(t, "1"),
		K:           mustU(t, "1"),
		Backing:     mustU(t, "1"),
		Phase:       market.Open,
		HasXFinal:   false,
		TotalSupply: mustU(t, "1"),
	}
	b := AppendSnapshot(nil, snap)
	got, _, err := DecodeSnapshot(b)
	require.NoError(t, err)
	require.False(t, got.HasXFinal)
}

func TestEventEncodesWithoutError(t *testing.T) {
	ev := market.Event{
		Kind:       market.EventTraded,
		MarketID:   uuid.New(),
		PositionID: uuid.New(),
		Snapshot: market.Snapshot{
			Phase:       market.Open,
			Sigma:       mustU(t, "10"),
			K:           mustU(t, "100"),
			Backing:     mustU(t, "1000"),
			TotalSupply: mustU(t, "1000"),
		},
		Payout: mustU(t, "5"),
	}
	b := AppendEvent(nil, ev)
	require.NotEmpty(t, b)
	require.Equal(t, byte(markerEvent), b[0])
}

func TestBytes32SignedRoundTripNegative(t *testing.T) {
	s := mustS(t, "-123.456")
	b := s.Bytes32()
	got, err := fp.FromBytes32Signed(b)
	require.NoError(t, err)
	require.Equal(t, 0, s.Cmp(got))
}

func TestBytes32UnsignedRoundTrip(t *testing.T) {
	u := mustU(t, "123456.789")
	b := u.Bytes32()
	got, err := fp.FromBytes32Unsigned(b)
	require.NoError(t, err)
	require.Equal(t, 0, u.Cmp(got))
}

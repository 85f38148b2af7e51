// Package wire implements the hand-rolled, zero-allocation binary
// encoding used by the WebSocket feed to broadcast market snapshots
// and events — modeled directly on the teacher's
// model.Snapshot.AppendMsgPack: a marker byte giving the field count,
// then each field appended in a fixed order.
package wire

import (
	"fmt"

	"distmarket/internal/fp"
	"distmarket/internal/market"
)

// Marker bytes, msgpack FixArray(N) encoding (0x90 | N) — kept
// consistent with the teacher's convention even though this package
// doesn't otherwise depend on msgpack.
const (
	markerSnapshot = 0x90 | 7 // phase, mu, sigma, k, backing, xFinal/hasXFinal, totalSupply
	markerEvent    = 0x90 | 5 // kind, marketID, positionID, snapshot, payout
)

// AppendSnapshot appends snap's wire encoding to b.
func AppendSnapshot(b []byte, snap market.Snapshot) []byte {
	b = append(b, markerSnapshot)
	b = append(b, byte(snap.Phase))
	b = appendSigned(b, snap.Mu)
	b = appendUnsigned(b, snap.Sigma)
	b = appendUnsigned(b, snap.K)
	b = appendUnsigned(b, snap.Backing)
	if snap.HasXFinal {
		b = append(b, 1)
		b = appendSigned(b, snap.XFinal)
	} else {
		b = append(b, 0)
		b = appendSigned(b, fp.ZeroSigned())
	}
	b = appendUnsigned(b, snap.TotalSupply)
	return b
}

// AppendEvent appends ev's wire encoding to b.
func AppendEvent(b []byte, ev market.Event) []byte {
	b = append(b, markerEvent)
	b = append(b, byte(ev.Kind))
	b = appendUUID(b, ev.MarketID)
	b = appendUUID(b, ev.PositionID)
	b = AppendSnapshot(b, ev.Snapshot)
	b = appendUnsigned(b, ev.Payout)
	return b
}

func appendSigned(b []byte, s fp.Signed) []byte {
	bytes := s.Bytes32()
	return append(b, bytes[:]...)
}

func appendUnsigned(b []byte, u fp.Unsigned) []byte {
	bytes := u.Bytes32()
	return append(b, bytes[:]...)
}

func appendUUID(b []byte, id [16]byte) []byte {
	return append(b, id[:]...)
}

// DecodeSnapshot reads a snapshot previously written by AppendSnapshot
// from the front of b, returning the decoded value and the number of
// bytes consumed.
func DecodeSnapshot(b []byte) (market.Snapshot, int, error) {
	if len(b) < 1 || b[0] != markerSnapshot {
		return market.Snapshot{}, 0, fmt.Errorf("wire: bad snapshot marker")
	}
	off := 1
	phase := market.Phase(b[off])
	off++

	mu, n, err := decodeSigned(b[off:])
	if err != nil {
		return market.Snapshot{}, 0, err
	}
	off += n

	sigma, n, err := decodeUnsigned(b[off:])
	if err != nil {
		return market.Snapshot{}, 0, err
	}
	off += n

	k, n, err := decodeUnsigned(b[off:])
	if err != nil {
		return market.Snapshot{}, 0, err
	}
	off += n

	backing, n, err := decodeUnsigned(b[off:])
	if err != nil {
		return market.Snapshot{}, 0, err
	}
	off += n

	hasXFinal := b[off] == 1
	off++
	xFinal, n, err := decodeSigned(b[off:])
	if err != nil {
		return market.Snapshot{}, 0, err
	}
	off += n

	totalSupply, n, err := decodeUnsigned(b[off:])
	if err != nil {
		return market.Snapshot{}, 0, err
	}
	off += n

	return market.Snapshot{
		Mu:          mu,
		Sigma:       sigma,
		K:           k,
		Backing:     backing,
		Phase:       phase,
		XFinal:      xFinal,
		HasXFinal:   hasXFinal,
		TotalSupply: totalSupply,
	}, off, nil
}

func decodeSigned(b []byte) (fp.Signed, int, error) {
	if len(b) < 32 {
		return fp.Signed{}, 0, fmt.Errorf("wire: short buffer for signed value")
	}
	var arr [32]byte
	copy(arr[:], b[:32])
	v, err := fp.FromBytes32Signed(arr)
	return v, 32, err
}

func decodeUnsigned(b []byte) (fp.Unsigned, int, error) {
	if len(b) < 32 {
		return fp.Unsigned{}, 0, fmt.Errorf("wire: short buffer for unsigned value")
	}
	var arr [32]byte
	copy(arr[:], b[:32])
	v, err := fp.FromBytes32Unsigned(arr)
	return v, 32, err
}

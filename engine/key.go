package engine

import (
	"sort"
	"strings"

	fasthex "github.com/tmthrgd/go-hex"
)

// RecoveredKey is the key of one tile, one byte per attacked position in
// ascending position order.
type RecoveredKey struct {
	Tile      Tile
	Positions []int
	Bytes     []byte
	// Errors holds the failure of each position index, nil where the byte was recovered.
	Errors []error
}

// Complete reports whether every position was recovered.
func (k *RecoveredKey) Complete() bool {
	for _, err := range k.Errors {
		if err != nil {
			return false
		}
	}
	return true
}

// Hex renders the key as lowercase hex. Positions that failed are shown as "??".
func (k *RecoveredKey) Hex() string {
	if k.Complete() {
		return fasthex.EncodeToString(k.Bytes)
	}
	var sb strings.Builder
	buf := make([]byte, 2)
	for i, b := range k.Bytes {
		if k.Errors[i] != nil {
			sb.WriteString("??")
			continue
		}
		fasthex.Encode(buf, []byte{b})
		sb.Write(buf)
	}
	return sb.String()
}

// Assemble groups unit results by tile, in the order tiles are given, and
// orders each tile's bytes by key-byte position. Every (tile, position)
// pair is produced by exactly one unit; pairs without a result are marked
// as failed.
func Assemble(tiles []Tile, positions []int, units []UnitResult) []RecoveredKey {
	sorted := append([]int(nil), positions...)
	sort.Ints(sorted)
	index := make(map[int]int, len(sorted))
	for i, p := range sorted {
		index[p] = i
	}

	keys := make([]RecoveredKey, len(tiles))
	byTile := make(map[Tile]*RecoveredKey, len(tiles))
	for i, t := range tiles {
		keys[i] = RecoveredKey{
			Tile:      t,
			Positions: sorted,
			Bytes:     make([]byte, len(sorted)),
			Errors:    make([]error, len(sorted)),
		}
		for j, p := range sorted {
			keys[i].Errors[j] = &UnitError{Tile: t, Position: p, Err: errMissing}
		}
		byTile[t] = &keys[i]
	}

	for _, u := range units {
		k, ok := byTile[u.Tile]
		if !ok {
			continue
		}
		i, ok := index[u.Position]
		if !ok {
			continue
		}
		k.Errors[i] = u.Err
		if u.Err == nil {
			k.Bytes[i] = u.Byte
		}
	}
	return keys
}

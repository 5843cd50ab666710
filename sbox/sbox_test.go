package sbox

import "testing"

func TestAESIsPermutation(t *testing.T) {
	seen := make(map[byte]bool, 256)
	for i := 0; i < 256; i++ {
		v := AES.Sub(byte(i))
		if seen[v] {
			t.Fatalf("value %02x appears twice", v)
		}
		seen[v] = true
	}
}

func TestOut(t *testing.T) {
	// FIPS-197 round 1: 0x00 ^ 0x2b -> 0xf1
	if got := AES.Out(0x00, 0x2b); got != 0xf1 {
		t.Errorf("Out(0x00, 0x2b) = %02x, want f1", got)
	}
	if got := AES.Out(0x53, 0x00); got != 0xed {
		t.Errorf("Out(0x53, 0x00) = %02x, want ed", got)
	}
}

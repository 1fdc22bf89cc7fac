package hashutil

import (
	"encoding/binary"
	"hash/fnv"
	"testing"

	"viper/internal/rtstr"
)

func TestFNV1aMatchesReference(t *testing.T) {
	inputs := []string{"", "a", "foobar", "The quick brown fox"}
	for _, in := range inputs {
		ref := fnv.New64a()
		_, _ = ref.Write([]byte(in))
		want := ref.Sum64()
		if got := FNV1a([]byte(in)); got != want {
			t.Errorf("FNV1a(%q) = %x, want %x", in, got, want)
		}
		if got := FNV1aString(in); got != want {
			t.Errorf("FNV1aString(%q) = %x, want %x", in, got, want)
		}
	}
}

func TestFNV1aUint64MatchesBytes(t *testing.T) {
	for _, v := range []uint64{0, 1, 0xdeadbeef, ^uint64(0)} {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], v)
		if FNV1aUint64(v) != FNV1a(buf[:]) {
			t.Errorf("FNV1aUint64(%x) differs from byte hash", v)
		}
	}
}

func TestLoadFactor(t *testing.T) {
	if NeedsGrow(12, 16) {
		t.Fatal("12/16 is exactly 3/4 and must not grow")
	}
	if !NeedsGrow(13, 16) {
		t.Fatal("13/16 exceeds 3/4")
	}
	if got := BucketsFor(0); got != InitialBuckets {
		t.Fatalf("BucketsFor(0) = %d", got)
	}
	if got := BucketsFor(100); got != 256 {
		t.Fatalf("BucketsFor(100) = %d, want 256", got)
	}
}

func TestStrView(t *testing.T) {
	if StrView(nil) != nil {
		t.Fatal("nil handle must view as nil")
	}
	s := rtstr.FromString("view")
	defer rtstr.Release(s)
	if string(StrView(s)) != "view" {
		t.Fatalf("unexpected view %q", StrView(s))
	}
}

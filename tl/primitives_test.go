package tl

import (
	"encoding/base64"
	"encoding/hex"
	"testing"
)

// Grounded on Gealber-dht/tl/tl_test.go's table-driven-subtest style:
// a slice of testcase structs compared by hex string, t.Fatal on mismatch.

func TestEncodeInt32(t *testing.T) {
	tcs := []struct {
		name string
		in   int32
		want string
	}{
		{"one", 1, "01000000"},
		{"zero", 0, "00000000"},
		{"negative one", -1, "ffffffff"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := hex.EncodeToString(EncodeInt32(tc.in))
			if got != tc.want {
				t.Fatalf("want: %s got: %s", tc.want, got)
			}
		})
	}
}

func TestEncodeStringFramingShort(t *testing.T) {
	tcs := []struct {
		name string
		in   []byte
		want string
	}{
		{"abc", []byte("abc"), "03616263"},
		{"14 bytes of 0xAA pads to mult of 4", make14AA(), "0e" + repeat("aa", 14) + "00"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := hex.EncodeToString(EncodeStringFraming(tc.in))
			if got != tc.want {
				t.Fatalf("want: %s got: %s", tc.want, got)
			}
			if len(EncodeStringFraming(tc.in))%4 != 0 {
				t.Fatal("framed output length must be a multiple of 4")
			}
		})
	}
}

func make14AA() []byte {
	b := make([]byte, 14)
	for i := range b {
		b[i] = 0xAA
	}
	return b
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func TestDecodeStringFramingRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, twice over for good measure")
	framed := EncodeStringFraming(payload)

	got, consumed, err := DecodeStringFraming(framed)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(framed) {
		t.Fatalf("consumed %d, framed is %d bytes", consumed, len(framed))
	}
	if string(got) != string(payload) {
		t.Fatalf("round trip mismatch: got %q want %q", got, payload)
	}
}

func TestDecodeStringFramingRejectsLengthTooBig(t *testing.T) {
	_, _, err := DecodeStringFraming([]byte{0xFF, 0, 0, 0})
	if err == nil {
		t.Fatal("expected error for leading 0xFF byte")
	}
}

func TestEncodeBlobBase64Fallback(t *testing.T) {
	// 32 raw bytes should pass through untouched.
	raw := make([]byte, 32)
	got, err := EncodeBlob("int256", raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 32 {
		t.Fatalf("want 32 bytes got %d", len(got))
	}

	// A base64 encoding of 32 bytes is decoded back to the 32-byte blob.
	encoded := []byte(base64.StdEncoding.EncodeToString(raw))
	got, err = EncodeBlob("int256", encoded)
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(got) != hex.EncodeToString(raw) {
		t.Fatalf("want %x got %x", raw, got)
	}
}

func TestNormalizeLongForms(t *testing.T) {
	want := int64(0x0102030405060708)

	tcs := []struct {
		name string
		in   any
	}{
		{"int64", want},
		{"raw 8 bytes", EncodeLong(want)},
		{"9-byte a-prefixed", append([]byte{'a'}, EncodeLong(want)...)},
		{"lo/hi pair", [2]int32{int32(uint32(want)), int32(uint32(want >> 32))}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeLong(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Fatalf("want: %x got: %x", want, got)
			}
		})
	}
}

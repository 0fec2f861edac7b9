package tl

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

// EncodeInt32 serializes a signed/unsigned 32-bit little-endian integer,
// used for both `int` and `#` (bitfield) TL types.
func EncodeInt32(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

// DecodeInt32 reads a 4-byte little-endian integer from buf[0:4].
func DecodeInt32(buf []byte) (int32, error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("tl: decode int32: %w", ErrStreamHandle)
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

// EncodeLong serializes the canonical form of `long`: a signed 64-bit
// little-endian integer. Alternate input forms (raw 8 bytes, the 9-byte
// 'a'-prefixed form, a [lo,hi] pair, *big.Int) are normalized by
// NormalizeLong before reaching here.
func EncodeLong(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

// DecodeLong reads a 8-byte little-endian signed integer from buf[0:8].
func DecodeLong(buf []byte) (int64, error) {
	if len(buf) < 8 {
		return 0, fmt.Errorf("tl: decode long: %w", ErrStreamHandle)
	}
	return int64(binary.LittleEndian.Uint64(buf)), nil
}

// NormalizeLong accepts every alternate `long` input form listed in the
// wire-format spec and reduces it to the raw 8 little-endian bytes that
// EncodeLong/DecodeLong exchange:
//
//   - int64 / any Go integer kind
//   - a raw 8-byte string/[]byte
//   - a 9-byte form beginning with 'a' (the leading byte is stripped)
//   - a [2]int32{lo, hi} pair, for 32-bit hosts that can't hold int64 atomically
//   - *big.Int (arbitrary precision, truncated/sign-extended to 64 bits)
func NormalizeLong(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case []byte:
		switch len(x) {
		case 8:
			return int64(binary.LittleEndian.Uint64(x)), nil
		case 9:
			if x[0] != 'a' {
				return 0, fmt.Errorf("tl: normalize long: 9-byte form must start with 'a': %w", ErrNotNumeric)
			}
			return int64(binary.LittleEndian.Uint64(x[1:])), nil
		default:
			return 0, fmt.Errorf("tl: normalize long: bad byte length %d: %w", len(x), ErrNotNumeric)
		}
	case [2]int32:
		lo, hi := uint32(x[0]), uint32(x[1])
		return int64(uint64(hi)<<32 | uint64(lo)), nil
	case *big.Int:
		return x.Int64(), nil
	default:
		return 0, fmt.Errorf("tl: normalize long: unsupported input type %T: %w", v, ErrNotNumeric)
	}
}

// EncodeDouble serializes an IEEE-754 double in little-endian order.
func EncodeDouble(v float64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

// DecodeDouble reads a little-endian IEEE-754 double from buf[0:8].
func DecodeDouble(buf []byte) (float64, error) {
	if len(buf) < 8 {
		return 0, fmt.Errorf("tl: decode double: %w", ErrStreamHandle)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// blobWidths maps int128/int256/int512 to their byte widths.
var blobWidths = map[string]int{
	"int128": 16,
	"int256": 32,
	"int512": 64,
}

// EncodeBlob validates an opaque fixed-width blob (int128/int256/int512).
// If the input length does not match the declared width, a base64 decode is
// attempted before failing, matching the lenient wire-format rule.
func EncodeBlob(kind string, data []byte) ([]byte, error) {
	width, ok := blobWidths[kind]
	if !ok {
		return nil, fmt.Errorf("tl: encode blob: unknown blob kind %q: %w", kind, ErrSchemaInvalid)
	}

	if len(data) == width {
		return data, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(string(data))
	if err == nil && len(decoded) == width {
		return decoded, nil
	}

	return nil, fmt.Errorf("tl: encode blob %s: length %d: %w", kind, len(data), blobLenError(kind))
}

func blobLenError(kind string) error {
	switch kind {
	case "int128":
		return ErrBadLength128
	case "int256":
		return ErrBadLength256
	default:
		return ErrBadLength512
	}
}

// DecodeBlob reads a fixed-width opaque blob from buf[0:width].
func DecodeBlob(kind string, buf []byte) ([]byte, error) {
	width, ok := blobWidths[kind]
	if !ok {
		return nil, fmt.Errorf("tl: decode blob: unknown blob kind %q: %w", kind, ErrSchemaInvalid)
	}
	if len(buf) < width {
		return nil, fmt.Errorf("tl: decode blob %s: %w", kind, ErrStreamHandle)
	}
	out := make([]byte, width)
	copy(out, buf[:width])
	return out, nil
}

// padLen4 returns the number of zero bytes needed to round n up to a
// multiple of 4.
func padLen4(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

// EncodeStringFraming serializes the short/long-form length-prefixed byte
// framing shared by `string` and `bytes`:
//
//   - L <= 253: one byte L, L data bytes, zero-pad to a multiple of 4
//   - L > 253:  one byte 0xFE, 3-byte little-endian length, L data bytes,
//     zero-pad to a multiple of 4
func EncodeStringFraming(data []byte) []byte {
	l := len(data)
	if l <= 253 {
		out := make([]byte, 0, 1+l+padLen4(1+l))
		out = append(out, byte(l))
		out = append(out, data...)
		out = append(out, make([]byte, padLen4(1+l))...)
		return out
	}

	lenBuf := make([]byte, 3)
	lenBuf[0] = byte(l)
	lenBuf[1] = byte(l >> 8)
	lenBuf[2] = byte(l >> 16)

	out := make([]byte, 0, 4+l+padLen4(l))
	out = append(out, 0xFE)
	out = append(out, lenBuf...)
	out = append(out, data...)
	out = append(out, make([]byte, padLen4(l))...)
	return out
}

// DecodeStringFraming parses the short/long-form framing from the front of
// buf, returning the payload and the number of bytes consumed (payload +
// length prefix + padding). A leading length byte of 0xFF is rejected.
func DecodeStringFraming(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) == 0 {
		return nil, 0, fmt.Errorf("tl: decode framing: %w", ErrStreamHandle)
	}

	lead := buf[0]
	if lead == 0xFF {
		return nil, 0, fmt.Errorf("tl: decode framing: leading byte 0xFF: %w", ErrLengthTooBig)
	}

	var l, headerLen int
	if lead < 0xFE {
		l = int(lead)
		headerLen = 1
	} else {
		if len(buf) < 4 {
			return nil, 0, fmt.Errorf("tl: decode framing: %w", ErrStreamHandle)
		}
		l = int(buf[1]) | int(buf[2])<<8 | int(buf[3])<<16
		headerLen = 4
	}

	if len(buf) < headerLen+l {
		return nil, 0, fmt.Errorf("tl: decode framing: payload truncated: %w", ErrStreamHandle)
	}

	payload = make([]byte, l)
	copy(payload, buf[headerLen:headerLen+l])

	total := headerLen + l
	total += padLen4(total)

	return payload, total, nil
}

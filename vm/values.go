package vm

import (
	"math"
	"reflect"

	"github.com/ipa-lang/ipa/types"
)

// toBits converts a Go value to the raw bits of kind k. The Go type must
// match the kind exactly.
func toBits(v any, k types.Kind) (uint64, bool) {
	switch k {
	case types.KindBool:
		if b, ok := v.(bool); ok {
			return boolBits(b), true
		}
	case types.KindS8:
		if x, ok := v.(int8); ok {
			return uint64(uint8(x)), true
		}
	case types.KindU8:
		if x, ok := v.(uint8); ok {
			return uint64(x), true
		}
	case types.KindS16:
		if x, ok := v.(int16); ok {
			return uint64(uint16(x)), true
		}
	case types.KindU16:
		if x, ok := v.(uint16); ok {
			return uint64(x), true
		}
	case types.KindS32:
		if x, ok := v.(int32); ok {
			return uint64(uint32(x)), true
		}
	case types.KindU32:
		if x, ok := v.(uint32); ok {
			return uint64(x), true
		}
	case types.KindS64:
		if x, ok := v.(int64); ok {
			return uint64(x), true
		}
	case types.KindU64:
		if x, ok := v.(uint64); ok {
			return x, true
		}
	case types.KindF32:
		if x, ok := v.(float32); ok {
			return uint64(math.Float32bits(x)), true
		}
	case types.KindF64:
		if x, ok := v.(float64); ok {
			return math.Float64bits(x), true
		}
	}
	return 0, false
}

// valueOf converts raw bits of kind k to the matching Go value. It returns
// nil for void.
func valueOf(bits uint64, k types.Kind) any {
	switch k {
	case types.KindBool:
		return bits&0xFF != 0
	case types.KindS8:
		return int8(bits)
	case types.KindU8:
		return uint8(bits)
	case types.KindS16:
		return int16(bits)
	case types.KindU16:
		return uint16(bits)
	case types.KindS32:
		return int32(bits)
	case types.KindU32:
		return uint32(bits)
	case types.KindS64:
		return int64(bits)
	case types.KindU64:
		return bits
	case types.KindF32:
		return math.Float32frombits(uint32(bits))
	case types.KindF64:
		return math.Float64frombits(bits)
	}
	return nil
}

// setOut stores raw bits of kind k through out, which must be a pointer to
// the matching Go type.
func setOut(out any, bits uint64, k types.Kind) bool {
	switch p := out.(type) {
	case *bool:
		if k != types.KindBool {
			return false
		}
		*p = bits&0xFF != 0
	case *int8:
		if k != types.KindS8 {
			return false
		}
		*p = int8(bits)
	case *uint8:
		if k != types.KindU8 {
			return false
		}
		*p = uint8(bits)
	case *int16:
		if k != types.KindS16 {
			return false
		}
		*p = int16(bits)
	case *uint16:
		if k != types.KindU16 {
			return false
		}
		*p = uint16(bits)
	case *int32:
		if k != types.KindS32 {
			return false
		}
		*p = int32(bits)
	case *uint32:
		if k != types.KindU32 {
			return false
		}
		*p = uint32(bits)
	case *int64:
		if k != types.KindS64 {
			return false
		}
		*p = int64(bits)
	case *uint64:
		if k != types.KindU64 {
			return false
		}
		*p = bits
	case *float32:
		if k != types.KindF32 {
			return false
		}
		*p = math.Float32frombits(uint32(bits))
	case *float64:
		if k != types.KindF64 {
			return false
		}
		*p = math.Float64frombits(bits)
	default:
		return false
	}
	return true
}

// checkOut reports whether out can receive a value of kind k: nil for void,
// otherwise a pointer to the matching Go type.
func checkOut(out any, k types.Kind) bool {
	if out == nil || k == types.KindVoid {
		return out == nil && k == types.KindVoid
	}
	v := valueOf(0, k)
	if v == nil {
		return false
	}
	return reflect.TypeOf(out) == reflect.PointerTo(reflect.TypeOf(v))
}

package types

import "math"

// Convert converts the raw bits of a value of kind from into the raw bits of
// kind to. Raw bits are the little-endian memory contents zero-extended to 64
// bits. The conversion follows Go's numeric conversion rules: narrowing
// truncates, widening extends according to the source signedness and
// float/integer conversions round toward zero. Conversion to bool yields 1 for
// any non-zero value.
func Convert(bits uint64, from, to Kind) uint64 {
	if to == KindBool {
		if isZero(bits, from) {
			return 0
		}
		return 1
	}
	switch from {
	case KindF32:
		return fromFloat(float64(math.Float32frombits(uint32(bits))), to)
	case KindF64:
		return fromFloat(math.Float64frombits(bits), to)
	case KindS8, KindS16, KindS32, KindS64:
		return fromInt(SignExtend(bits, from.Size()), to)
	default:
		return fromUint(bits&mask(from.Size()), to)
	}
}

// SignExtend interprets the low size bytes of bits as a signed integer.
func SignExtend(bits uint64, size uint32) int64 {
	switch size {
	case 1:
		return int64(int8(bits))
	case 2:
		return int64(int16(bits))
	case 4:
		return int64(int32(bits))
	default:
		return int64(bits)
	}
}

func mask(size uint32) uint64 {
	if size >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*size) - 1
}

func isZero(bits uint64, from Kind) bool {
	switch from {
	case KindF32:
		return math.Float32frombits(uint32(bits)) == 0
	case KindF64:
		return math.Float64frombits(bits) == 0
	}
	return bits&mask(from.Size()) == 0
}

func fromInt(x int64, to Kind) uint64 {
	switch to {
	case KindF32:
		return uint64(math.Float32bits(float32(x)))
	case KindF64:
		return math.Float64bits(float64(x))
	}
	return uint64(x) & mask(to.Size())
}

func fromUint(x uint64, to Kind) uint64 {
	switch to {
	case KindF32:
		return uint64(math.Float32bits(float32(x)))
	case KindF64:
		return math.Float64bits(float64(x))
	}
	return x & mask(to.Size())
}

func fromFloat(x float64, to Kind) uint64 {
	switch to {
	case KindF32:
		return uint64(math.Float32bits(float32(x)))
	case KindF64:
		return math.Float64bits(x)
	case KindS8:
		return uint64(uint8(int8(x)))
	case KindS16:
		return uint64(uint16(int16(x)))
	case KindS32:
		return uint64(uint32(int32(x)))
	case KindS64:
		return uint64(int64(x))
	case KindU8:
		return uint64(uint8(x))
	case KindU16:
		return uint64(uint16(x))
	case KindU32:
		return uint64(uint32(x))
	default:
		return uint64(x)
	}
}

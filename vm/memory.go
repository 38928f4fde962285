package vm

import (
	"encoding/binary"
	"math"

	"github.com/ipa-lang/ipa/op"
	"github.com/ipa-lang/ipa/types"
)

// load reads a little-endian value of size bytes, zero-extended.
func load(mem []byte, off, size uint32) uint64 {
	switch size {
	case 1:
		return uint64(mem[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(mem[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(mem[off:]))
	default:
		return binary.LittleEndian.Uint64(mem[off:])
	}
}

// store writes the low size bytes of v.
func store(mem []byte, off, size uint32, v uint64) {
	switch size {
	case 1:
		mem[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(mem[off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(mem[off:], uint32(v))
	default:
		binary.LittleEndian.PutUint64(mem[off:], v)
	}
}

func zero(mem []byte) {
	for i := range mem {
		mem[i] = 0
	}
}

func mask(size uint32) uint64 {
	if size >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*size) - 1
}

func isFloat(k types.Kind) bool {
	return k == types.KindF32 || k == types.KindF64
}

func isSigned(k types.Kind) bool {
	switch k {
	case types.KindS8, types.KindS16, types.KindS32, types.KindS64:
		return true
	}
	return false
}

func toFloat(bits uint64, k types.Kind) float64 {
	if k == types.KindF32 {
		return float64(math.Float32frombits(uint32(bits)))
	}
	return math.Float64frombits(bits)
}

func fromFloat(x float64, k types.Kind) uint64 {
	if k == types.KindF32 {
		return uint64(math.Float32bits(float32(x)))
	}
	return math.Float64bits(x)
}

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// arith applies a binary arithmetic operation to two values of kind k.
// Integer division by zero panics like the Go operation it mirrors.
func arith(k types.Kind, off op.Code, x, y uint64) uint64 {
	size := k.Size()
	switch {
	case isFloat(k):
		a, b := toFloat(x, k), toFloat(y, k)
		var r float64
		switch off {
		case op.Add:
			r = a + b
		case op.Sub:
			r = a - b
		case op.Mul:
			r = a * b
		case op.Div:
			r = a / b
		case op.Mod:
			r = math.Mod(a, b)
		}
		if k == types.KindF32 {
			r = float64(float32(r))
		}
		return fromFloat(r, k)
	case isSigned(k):
		a, b := types.SignExtend(x, size), types.SignExtend(y, size)
		var r int64
		switch off {
		case op.Add:
			r = a + b
		case op.Sub:
			r = a - b
		case op.Mul:
			r = a * b
		case op.Div:
			r = a / b
		case op.Mod:
			r = a % b
		case op.Shr:
			r = a >> b
		}
		return uint64(r) & mask(size)
	default:
		a, b := x&mask(size), y&mask(size)
		var r uint64
		switch off {
		case op.Add:
			r = a + b
		case op.Sub:
			r = a - b
		case op.Mul:
			r = a * b
		case op.Div:
			r = a / b
		case op.Mod:
			r = a % b
		case op.Shr:
			r = a >> b
		}
		return r & mask(size)
	}
}

// compare evaluates a comparison between two values of kind k.
func compare(k types.Kind, off op.Code, x, y uint64) bool {
	size := k.Size()
	var c int
	switch {
	case isFloat(k):
		a, b := toFloat(x, k), toFloat(y, k)
		switch off {
		case op.Eq:
			return a == b
		case op.Neq:
			return a != b
		case op.Lt:
			return a < b
		case op.Le:
			return a <= b
		case op.Gt:
			return a > b
		default:
			return a >= b
		}
	case isSigned(k):
		a, b := types.SignExtend(x, size), types.SignExtend(y, size)
		c = cmp(a, b)
	default:
		c = cmp(x&mask(size), y&mask(size))
	}
	switch off {
	case op.Eq:
		return c == 0
	case op.Neq:
		return c != 0
	case op.Lt:
		return c < 0
	case op.Le:
		return c <= 0
	case op.Gt:
		return c > 0
	default:
		return c >= 0
	}
}

func cmp[T int64 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// step adds or subtracts one.
func step(k types.Kind, x uint64, delta int64) uint64 {
	if isFloat(k) {
		return fromFloat(toFloat(x, k)+float64(delta), k)
	}
	return (x + uint64(delta)) & mask(k.Size())
}

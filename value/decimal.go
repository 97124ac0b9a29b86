package value

import (
	"math/big"
)

// DecimalFromTwos builds a decimal Value from a big-endian two's-complement
// unscaled integer, the representation decimals use on the wire.
func DecimalFromTwos(b []byte, precision, scale int) Value {
	n := new(big.Int)
	if len(b) > 0 {
		n.SetBytes(b)
		if b[0]&0x80 != 0 {
			n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
		}
	}

	return NewDecimal(n, precision, scale)
}

// Twos returns the unscaled integer as big-endian two's complement. With size <= 0
// the shortest encoding is produced; otherwise the result is sign-extended to exactly
// size bytes and ok is false when the integer does not fit.
func (d Decimal) Twos(size int) (out []byte, ok bool) {
	x := d.Unscaled
	if x == nil {
		x = new(big.Int)
	}

	var minimal []byte
	if x.Sign() >= 0 {
		minimal = x.Bytes()
		if len(minimal) == 0 || minimal[0]&0x80 != 0 {
			minimal = append([]byte{0}, minimal...)
		}
	} else {
		// ^x == -x-1 has the same magnitude bits as the negative value needs.
		n := new(big.Int).Not(x).BitLen()/8 + 1
		m := new(big.Int).Add(x, new(big.Int).Lsh(big.NewInt(1), uint(8*n))) //nolint:gosec
		minimal = m.FillBytes(make([]byte, n))
	}

	if size <= 0 {
		return minimal, true
	}
	if len(minimal) > size {
		return nil, false
	}

	out = make([]byte, size)
	if x.Sign() < 0 {
		for i := range out[:size-len(minimal)] {
			out[i] = 0xff
		}
	}
	copy(out[size-len(minimal):], minimal)

	return out, true
}

// Digits returns the number of base-10 digits of the unscaled integer.
func (d Decimal) Digits() int {
	if d.Unscaled == nil || d.Unscaled.Sign() == 0 {
		return 1
	}
	s := new(big.Int).Abs(d.Unscaled).String()

	return len(s)
}

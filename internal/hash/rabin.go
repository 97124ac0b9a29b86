package hash

// RabinEmpty is the CRC-64-AVRO fingerprint of the empty input.
const RabinEmpty uint64 = 0xc15d213aa4d7a795

var rabinTable = func() [256]uint64 {
	var t [256]uint64
	for i := range t {
		fp := uint64(i)
		for range 8 {
			fp = (fp >> 1) ^ (RabinEmpty & -(fp & 1))
		}
		t[i] = fp
	}

	return t
}()

// Rabin computes the 64-bit Rabin fingerprint (CRC-64-AVRO) of data.
func Rabin(data []byte) uint64 {
	fp := RabinEmpty
	for _, b := range data {
		fp = (fp >> 8) ^ rabinTable[byte(fp)^b]
	}

	return fp
}

package trie

// keybytesToHex expands a key into its nibbles, high nibble first. Unlike the
// go-ethereum helper no terminator is appended; leaves are tracked by node kind.
func keybytesToHex(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}

	return nibbles
}

// hexToCompact applies the hex-prefix encoding to a nibble path. The first
// nibble carries the flags: bit 1 marks a leaf, bit 0 an odd path length.
func hexToCompact(nibbles []byte, leaf bool) []byte {
	var flag byte
	if leaf {
		flag = 2
	}

	buf := make([]byte, len(nibbles)/2+1)

	if len(nibbles)%2 == 1 {
		flag |= 1
		buf[0] = flag<<4 | nibbles[0]
		nibbles = nibbles[1:]
	} else {
		buf[0] = flag << 4
	}

	for i := 0; i < len(nibbles); i += 2 {
		buf[1+i/2] = nibbles[i]<<4 | nibbles[i+1]
	}

	return buf
}

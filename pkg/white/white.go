// Package white removes white space from sequence data. It only knows
// about ascii, which is all one finds in sequence files.
package white

var asciiSpace = [256]bool{
	'\t': true, '\n': true, '\v': true, '\f': true, '\r': true, ' ': true,
}

// IsWhite says if c is an ascii white space character.
func IsWhite(c byte) bool { return asciiSpace[c] }

// Remove acts on a byte slice, in place and removes all the white
// space. The length is adjusted, but the capacity is unchanged.
func Remove(sIn *[]byte) {
	s := *sIn
	n := 0
	for _, c := range s {
		if !asciiSpace[c] {
			s[n] = c
			n++
		}
	}
	*sIn = s[:n]
}

// TrimLeft returns the slice with leading white space removed.
func TrimLeft(s []byte) []byte {
	i := 0
	for i < len(s) && asciiSpace[s[i]] {
		i++
	}
	return s[i:]
}

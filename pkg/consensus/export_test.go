package consensus

import "github.com/andrew-torda/matrix"

var RowSpan = rowSpan

// Call makes the base call for one column from counts of A, C, G and T.
func Call(tallies [4]float32, coverage int, minAgree float64) byte {
	m := matrix.NewFMatrix2d(len(bases), 1)
	for b, n := range tallies {
		m.Mat[b][0] = n
	}
	return call(m, 0, coverage, minAgree)
}

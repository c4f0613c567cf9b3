// 2 Sep 2022

// Package consensus builds a majority-vote consensus sequence from a
// multiple sequence alignment of one species.
//
// Two thresholds control the result. MinRepresentation is the fraction
// of all sequences which must cover a column for the column to appear in
// the output at all. Columns which fail at either end are trimmed off.
// MinAgreement is the fraction of covering sequences which must agree on
// a base for it to be called. Otherwise the column is called as N.
//
// A sequence covers the columns from its first to its last non-gap
// residue, so internal gaps count as coverage, but leading and trailing
// gaps do not.
package consensus

import (
	"errors"
	"fmt"

	"github.com/andrew-torda/matrix"

	"github.com/andrew-torda/seqcons/pkg/seq/common"
)

const (
	DefaultMinAgreement      = 0.9
	DefaultMinRepresentation = 0.5
	Ambiguous           byte = 'N' // called when no base is convincing
)

var (
	// ErrInvalidAlignment is returned for no rows or rows of unequal length.
	ErrInvalidAlignment = errors.New("invalid alignment")
	// ErrEmptyAlignmentRow is returned when a row has nothing but gaps.
	ErrEmptyAlignmentRow = errors.New("alignment row has no residues")
)

// bases are the symbols we count, in order of priority for ties.
var bases = [...]byte{'A', 'C', 'G', 'T'}

// baseNdx['c'] is the row in the tally matrix for a base, or -1.
var baseNdx = func() (m [256]int8) {
	for i := range m {
		m[i] = -1
	}
	for i, b := range bases {
		m[b] = int8(i)
		m[b|0x20] = int8(i) // lower case
	}
	return
}()

// Options are the two thresholds.
type Options struct {
	MinAgreement      float64 // fraction of covering sequences agreeing on a base
	MinRepresentation float64 // fraction of all sequences covering a column
}

// DefaultOptions returns the thresholds of 0.9 and 0.5.
func DefaultOptions() *Options {
	return &Options{
		MinAgreement:      DefaultMinAgreement,
		MinRepresentation: DefaultMinRepresentation,
	}
}

// Span is the half open range of columns [Start, End) from the first to
// just after the last residue of a row.
type Span struct {
	Start, End int
}

// Contains says if a column lies in the span.
func (s Span) Contains(c int) bool { return c >= s.Start && c < s.End }

// Result is a consensus sequence. Seq covers the alignment columns
// [Left, Right). Coverage has one entry for every column of the
// alignment, not just the trimmed ones.
type Result struct {
	Seq         string
	Left, Right int
	Coverage    []int
	NRow        int
}

// Len is the length of the consensus.
func (r *Result) Len() int { return r.Right - r.Left }

// RepRatio is the fraction of sequences covering column c.
func (r *Result) RepRatio(c int) float64 {
	return float64(r.Coverage[c]) / float64(r.NRow)
}

// NAmbig counts the ambiguous calls in the consensus.
func (r *Result) NAmbig() int {
	n := 0
	for i := 0; i < len(r.Seq); i++ {
		if r.Seq[i] == Ambiguous {
			n++
		}
	}
	return n
}

// checkAlignment makes sure there is at least one row and all rows
// have the same length. It returns the number of columns.
func checkAlignment(aln [][]byte) (int, error) {
	if len(aln) == 0 {
		return 0, fmt.Errorf("%w: no sequences", ErrInvalidAlignment)
	}
	ncol := len(aln[0])
	for i, row := range aln {
		if len(row) != ncol {
			const msg = "%w: row %d has length %d, but row 0 has %d"
			return 0, fmt.Errorf(msg, ErrInvalidAlignment, i, len(row), ncol)
		}
	}
	return ncol, nil
}

// rowSpan finds the first and last residue of one row.
func rowSpan(row []byte) (Span, bool) {
	start := 0
	for start < len(row) && common.IsGap(row[start]) {
		start++
	}
	if start == len(row) {
		return Span{}, false
	}
	end := len(row)
	for common.IsGap(row[end-1]) {
		end--
	}
	return Span{Start: start, End: end}, true
}

// Spans returns the span of each row of an alignment.
func Spans(aln [][]byte) ([]Span, error) {
	if _, err := checkAlignment(aln); err != nil {
		return nil, err
	}
	spans := make([]Span, len(aln))
	for i, row := range aln {
		s, ok := rowSpan(row)
		if !ok {
			return nil, fmt.Errorf("%w: row %d", ErrEmptyAlignmentRow, i)
		}
		spans[i] = s
	}
	return spans, nil
}

// Coverage counts how many spans include each of ncol columns.
func Coverage(spans []Span, ncol int) []int {
	delta := make([]int, ncol+1)
	for _, s := range spans {
		delta[s.Start]++
		delta[s.End]--
	}
	cov := make([]int, ncol)
	n := 0
	for c := range cov {
		n += delta[c]
		cov[c] = n
	}
	return cov
}

// Trim finds the columns [left, right) between the first and last column
// where at least a fraction minRep of nrow sequences are present.
// If no column makes it, left == right == 0.
func Trim(coverage []int, nrow int, minRep float64) (left, right int) {
	passes := func(c int) bool {
		return float64(coverage[c])/float64(nrow) >= minRep
	}
	left = 0
	for left < len(coverage) && !passes(left) {
		left++
	}
	if left == len(coverage) {
		return 0, 0
	}
	right = len(coverage)
	for !passes(right - 1) {
		right--
	}
	return left, right
}

// tally counts the bases in columns [left, right) of rows which cover
// each column. counts.Mat looks like [base][column - left].
func tally(aln [][]byte, spans []Span, left, right int) *matrix.FMatrix2d {
	counts := matrix.NewFMatrix2d(len(bases), right-left)
	for i, row := range aln {
		lo, hi := max(left, spans[i].Start), min(right, spans[i].End)
		for c := lo; c < hi; c++ {
			if b := baseNdx[row[c]]; b >= 0 {
				counts.Mat[b][c-left]++
			}
		}
	}
	return counts
}

// call picks the base for one column. The first base with the highest
// count wins, so ties go A, C, G, T.
func call(counts *matrix.FMatrix2d, icol, coverage int, minAgree float64) byte {
	best, nbest := 0, counts.Mat[0][icol]
	for b := 1; b < len(bases); b++ {
		if n := counts.Mat[b][icol]; n > nbest {
			best, nbest = b, n
		}
	}
	if nbest == 0 || float64(nbest)/float64(coverage) < minAgree {
		return Ambiguous
	}
	return bases[best]
}

// Build calculates the consensus of an alignment. A nil opts means the
// default thresholds. The alignment is not changed.
func Build(aln [][]byte, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	ncol, err := checkAlignment(aln)
	if err != nil {
		return nil, err
	}
	spans, err := Spans(aln)
	if err != nil {
		return nil, err
	}
	cov := Coverage(spans, ncol)
	left, right := Trim(cov, len(aln), opts.MinRepresentation)
	res := &Result{Left: left, Right: right, Coverage: cov, NRow: len(aln)}
	if left == right {
		return res, nil
	}

	counts := tally(aln, spans, left, right)
	cons := make([]byte, right-left)
	for c := left; c < right; c++ {
		cons[c-left] = call(counts, c-left, cov[c], opts.MinAgreement)
	}
	res.Seq = string(cons)
	return res, nil
}

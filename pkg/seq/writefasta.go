package seq

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/andrew-torda/seqcons/pkg/seq/common"
)

const cPerLine = 60 // residues per line on output

// WriteFasta writes records in fasta format. Empty records are skipped.
// If s_opts.RmvGapsWrt is set, gap characters are left out.
func WriteFasta(w io.Writer, recs []*Record, s_opts *Options) error {
	if s_opts == nil {
		s_opts = &Options{}
	}
	if s_opts.DryRun {
		w = io.Discard
	}
	fw := fasta.NewWriter(w, cPerLine)
	for _, r := range recs {
		if r == nil || r.Len() == 0 {
			continue
		}
		s := r.Seq
		if s_opts.RmvGapsWrt {
			s = rmvGaps(s)
		}
		ls := linear.NewSeq(r.ID, alphabet.BytesToLetters(s), alphabet.DNAgapped)
		ls.Desc = r.Desc
		if _, err := fw.Write(ls); err != nil {
			return fmt.Errorf("writing sequence %s: %w", r.ID, err)
		}
	}
	return nil
}

// WriteToF takes a filename and a slice of sequences and writes the
// sequences to the file. An empty name means standard output.
func WriteToF(outseq_fname string, recs []*Record, s_opts *Options) (err error) {
	if outseq_fname == "" || outseq_fname == "-" {
		return WriteFasta(os.Stdout, recs, s_opts)
	}
	if s_opts != nil && s_opts.DryRun {
		return nil
	}
	fp, err := os.Create(outseq_fname)
	if err != nil {
		return fmt.Errorf("Creating output sequence file: %w", err)
	}
	defer func() {
		if e := fp.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return WriteFasta(fp, recs, s_opts)
}

// Ungapped returns a copy of the record with gap characters removed.
func (r *Record) Ungapped() *Record {
	t := *r
	t.Seq = make([]byte, 0, len(r.Seq))
	for _, c := range r.Seq {
		if !common.IsGap(c) {
			t.Seq = append(t.Seq, c)
		}
	}
	return &t
}

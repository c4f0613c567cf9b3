// 20 Dec 2017

// Package seq provides functions for sequences,
// which usually begin their lives in fasta or genbank format. It can
// read them and write them.
//
// A Record is one sequence with the bits of annotation we care about.
// A SeqGrp is an ordered group of records. If the records come from an
// aligner, they all have the same length and the group can be handed
// out as an alignment matrix with Rows().
package seq

import (
	"fmt"
	"strings"
)

// We only read ascii characters, so anything bigger than this is not
// valid.
const (
	MaxSym uint8 = 127
)

// Options contains all the choices passed in from the caller.
type Options struct {
	DiffLenSeq bool // false, unless we expect sequences to be different lengths
	DryRun     bool // Do not write any files
	RmvGapsRd  bool // Remove gaps upon reading
	RmvGapsWrt bool // Remove gaps on output
}

// Record is one sequence. ID is the first word of the comment line
// (or the accession for genbank), Desc is whatever followed it.
// Organism is the free text organism annotation. It may be empty if the
// source format did not carry one.
type Record struct {
	ID       string
	Desc     string
	Organism string
	Seq      []byte
}

// Len returns the number of symbols, including gaps.
func (r *Record) Len() int { return len(r.Seq) }

// Cmmt gives back the comment line as it would appear after the ">".
func (r *Record) Cmmt() string {
	if r.Desc == "" {
		return r.ID
	}
	return r.ID + " " + r.Desc
}

// String returns a sequence, with its comment at the start as
// a single string
func (r *Record) String() string {
	return fmt.Sprintf("%c%s\n%s", cmmtChar, r.Cmmt(), r.Seq)
}

// splitCmmt breaks a fasta comment line into an identifier and the rest.
func splitCmmt(cmmt string) (id, desc string) {
	cmmt = strings.TrimSpace(cmmt)
	if i := strings.IndexAny(cmmt, " \t"); i != -1 {
		return cmmt[:i], strings.TrimSpace(cmmt[i+1:])
	}
	return cmmt, ""
}

// species tries to return the organism from which a sequence
// comes. Actually, it just looks in the comment line for a string
// between square brackets and returns it. Given
//
//	> xyz.123 comment here [  homo sapiens]
//
// it should return "homo sapiens" with leading and trailing white
// space removed.
func species(cmmt string) (species string, ok bool) {
	var i, j int
	if i = strings.LastIndexByte(cmmt, '['); i == -1 {
		return
	}
	if j = strings.LastIndexByte(cmmt, ']'); j == -1 {
		return
	}
	if i >= j { // We treat it as if there is no comment
		return
	}
	return strings.TrimSpace(cmmt[i+1 : j]), true
}

// trimStr trims a string to n bytes if it is longer
func trimStr(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// checkSyms makes sure a sequence only has symbols we can handle.
func checkSyms(r *Record) error {
	const symerr = "bad sym \"%c\" at position %d starting \"%s\""
	for i, c := range r.Seq {
		if c >= MaxSym {
			return fmt.Errorf(symerr, c, i, trimStr(r.Cmmt(), 40))
		}
	}
	return nil
}

// SeqGrp is a group of sequences.
type SeqGrp struct {
	recs []*Record
}

// NewSeqGrp wraps a slice of records. The records are not copied.
func NewSeqGrp(recs []*Record) *SeqGrp { return &SeqGrp{recs: recs} }

// GetLen returns the length of the first sequence.
// If we are reading a multiple sequence alignment, this should be the length
// of all sequences.
func (seqgrp *SeqGrp) GetLen() int {
	if len(seqgrp.recs) == 0 {
		return 0
	}
	return seqgrp.recs[0].Len()
}

// NSeq returns the number of sequences
func (seqgrp *SeqGrp) NSeq() int { return len(seqgrp.recs) }

// SeqSlc return the slice of sequences
func (seqgrp *SeqGrp) SeqSlc() []*Record { return seqgrp.recs }

// Rows gives the sequences as an alignment matrix. The rows share
// memory with the records, so callers should not write to them.
func (seqgrp *SeqGrp) Rows() [][]byte {
	rows := make([][]byte, len(seqgrp.recs))
	for i, r := range seqgrp.recs {
		rows[i] = r.Seq
	}
	return rows
}

// checkLengths should only be called if we are keeping
// gaps. Then we imagine all the sequences are aligned, so they
// must be the same length.
func (seqgrp *SeqGrp) checkLengths() error {
	const msg = "Sequence lengths are not the same. First sequence length %d, but" +
		" sequence %d length: %d. Sequence starts \"%s\""
	if len(seqgrp.recs) == 0 {
		return nil
	}
	iwant := seqgrp.recs[0].Len()
	for i := 1; i < len(seqgrp.recs); i++ {
		if ilen := seqgrp.recs[i].Len(); ilen != iwant {
			return fmt.Errorf(msg, iwant, i, ilen, trimStr(seqgrp.recs[i].Cmmt(), 40))
		}
	}
	return nil
}

// FindNdx Returns the index of the sequence containing a string.
// Numbering starts from zero. We remove any ">", space or tab at the start.
func (seqgrp *SeqGrp) FindNdx(s string) int {
	s = strings.TrimLeft(s, " >	")

	for i, r := range seqgrp.recs {
		if strings.Contains(r.Cmmt(), s) {
			return i
		}
	}
	return -1
}

// Str2SeqGrp takes some strings and returns them as a seqgrp.
// sIn is a slice of strings which are the sequences.
// prefix is an optional argument. Sequences need names/comments. If
// prefix is not given, sequences will be called "s0", "s1", ...
func Str2SeqGrp(sIn []string, prefix ...string) *SeqGrp {
	var base string
	seqgrp := new(SeqGrp)
	if prefix == nil {
		base = "s"
	} else {
		base = prefix[0]
	}
	for i, s := range sIn {
		r := &Record{ID: fmt.Sprint(base, i), Seq: []byte(s)}
		seqgrp.recs = append(seqgrp.recs, r)
	}
	return seqgrp
}

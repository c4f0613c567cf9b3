// 3 Sep 2022
// Reader for genbank flat files. We only want a few things from each
// entry, the identifier, organism and the sequence, so this is not a
// general genbank parser. Features are skipped.

package seq

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ErrGenbank is wrapped by all the parsing errors from this file.
var ErrGenbank = errors.New("genbank format")

const gbEnd = "//"

// gbEntry is the record being built. The key says which multi-line
// field we are in, so continuation lines go to the right place.
type gbEntry struct {
	locus, accession, version string
	def                       []byte
	organism                  string
	seq                       []byte
	key                       string
	lineno                    int // where the entry starts
}

func (e *gbEntry) toRecord() (*Record, error) {
	id := e.version
	if id == "" {
		id = e.accession
	}
	if id == "" {
		id = e.locus
	}
	if e.organism == "" {
		return nil, fmt.Errorf("%w: entry \"%s\" at line %d has no ORGANISM", ErrGenbank, id, e.lineno)
	}
	r := &Record{ID: id, Desc: string(e.def), Organism: e.organism, Seq: e.seq}
	if err := checkSyms(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenbank, err)
	}
	return r, nil
}

// firstWord returns the first white space separated word of b, or "".
func firstWord(b []byte) string {
	if f := bytes.Fields(b); len(f) > 0 {
		return string(f[0])
	}
	return ""
}

// addResidues appends the sequence part of an ORIGIN line, which looks like
//
//	61 tctgcatttt taaaaaggtt
//
// The numbers and spaces go. Residues are upper cased.
func addResidues(s []byte, line []byte) []byte {
	const diff = 'a' - 'A'
	for _, c := range line {
		switch {
		case 'a' <= c && c <= 'z':
			s = append(s, c-diff)
		case 'A' <= c && c <= 'Z', c == '-', c == '*':
			s = append(s, c)
		}
	}
	return s
}

// ParseGenbank breaks a genbank file, already in memory, into records.
// Nothing in the returned records points into b, so b can be unmapped
// or reused afterwards.
func ParseGenbank(b []byte) ([]*Record, error) {
	var recs []*Record
	var e *gbEntry
	lineno := 0
	for len(b) > 0 {
		var line []byte
		if i := bytes.IndexByte(b, NL); i == -1 {
			line, b = b, nil
		} else {
			line, b = b[:i], b[i+1:]
		}
		lineno++
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if e == nil { // between entries, only LOCUS is allowed
			if !bytes.HasPrefix(line, []byte("LOCUS")) {
				return nil, fmt.Errorf("%w: line %d: expected LOCUS", ErrGenbank, lineno)
			}
			e = &gbEntry{lineno: lineno}
		}
		if bytes.HasPrefix(line, []byte(gbEnd)) {
			r, err := e.toRecord()
			if err != nil {
				return nil, err
			}
			recs = append(recs, r)
			e = nil
			continue
		}

		if line[0] != ' ' { // A new top level keyword
			key := firstWord(line)
			rest := bytes.TrimSpace(line[len(key):])
			e.key = key
			switch key {
			case "LOCUS":
				e.locus = firstWord(rest)
			case "ACCESSION":
				e.accession = firstWord(rest)
			case "VERSION":
				e.version = firstWord(rest)
			case "DEFINITION":
				e.def = append(e.def[:0], rest...)
			}
			continue
		}
		if e.key == "ORIGIN" {
			e.seq = addResidues(e.seq, line)
			continue
		}
		sub := firstWord(line)
		switch {
		case sub == "ORGANISM" && e.key == "SOURCE":
			e.organism = string(bytes.TrimSpace(bytes.TrimSpace(line)[len(sub):]))
			e.key = "ORGANISM" // lineage lines follow. Ignore them
		case e.key == "DEFINITION":
			e.def = append(e.def, ' ')
			e.def = append(e.def, bytes.TrimSpace(line)...)
		}
	}
	if e != nil {
		return nil, fmt.Errorf("%w: entry at line %d not terminated by \"%s\"", ErrGenbank, e.lineno, gbEnd)
	}
	return recs, nil
}

// ReadGenbankFile maps a genbank file into memory and returns its
// records. An empty file gives no records and no error.
func ReadGenbankFile(fname string) ([]*Record, error) {
	var fp *os.File
	var err error
	var mm mmap.MMap
	if fp, err = os.Open(fname); err != nil {
		return nil, err
	}
	defer fp.Close()
	if fi, err := fp.Stat(); err != nil {
		return nil, err
	} else if fi.Size() == 0 { // mmap refuses zero length files
		return nil, nil
	}
	if mm, err = mmap.Map(fp, mmap.RDONLY, 0); err != nil {
		return nil, fmt.Errorf("mapping %s: %w", fname, err)
	}
	defer mm.Unmap()
	recs, err := ParseGenbank(mm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return recs, nil
}

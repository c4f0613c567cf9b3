// Reader for fasta format files.

package seq

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/andrew-torda/seqcons/pkg/seq/common"
	"github.com/andrew-torda/seqcons/pkg/white"
)

// An item is terminated by a newline if we are in a comment or a comment
// character ">" if we are in a sequence.
const (
	NL       = '\n'
	cmmtChar = '>'
)

type item struct {
	data     []byte
	complete bool
	eof      bool // last item, sent when the input has run out
}

type lexer struct {
	input    []byte
	ichan    chan *item
	seqgrp   *SeqGrp
	s_opts   *Options
	rdr      io.Reader
	itempool sync.Pool
	cmmt     string // partial comment
	seq      []byte // partial sequence
	term     byte
	started  bool  // seen the first ">"
	rdErr    error // only written by next(), before it closes ichan
	err      error
}

const defaultReadSize = 512

var rdsize int = defaultReadSize

// setFastaRdSize is only used during testing and benchmarking
func setFastaRdSize(i int) {
	if i < 1 {
		panic("setFastaRdSize given buffer length less than 1")
	}
	rdsize = i
}

var errNoCmmt = errors.New("fasta input does not start with \">\"")

func newItem() interface{} { return new(item) }

// next reads from the input and sends an item to channel, ichan.
// An item is terminated by l.term, or the end of the buffer or
// end of input.
func (l *lexer) next() {
	defer close(l.ichan)
	eof := false
	for {
		if len(l.input) == 0 {
			if eof {
				if l.started { // we have to flush
					item := l.itempool.Get().(*item)
					item.data, item.complete, item.eof = nil, true, true
					l.ichan <- item
				}
				return
			}
			buf := make([]byte, rdsize)
			n, err := l.rdr.Read(buf)
			if err != nil {
				if err != io.EOF {
					l.rdErr = err // a real error, not just the end
					return
				}
				eof = true
			}
			l.input = buf[:n]
			if !l.started { // Hop over anything before the first ">"
				if l.input = white.TrimLeft(l.input); len(l.input) == 0 {
					continue
				}
				if l.input[0] != cmmtChar {
					l.rdErr = errNoCmmt
					return
				}
				l.input = l.input[1:]
				l.started = true
			}
			continue
		}

		item := l.itempool.Get().(*item)
		item.eof = false
		if ndx := bytes.IndexByte(l.input, l.term); ndx == -1 {
			item.data = l.input // no terminator found, so just send
			l.input = nil       // back whatever we have in the buffer.
			item.complete = false
		} else { //                      We did find a terminator
			item.data = l.input[:ndx]  //
			item.complete = true       //
			l.input = l.input[ndx+1:]  // Set up for next loop
			if l.term == NL {
				l.term = cmmtChar
			} else {
				l.term = NL
			}
		}
		l.ichan <- item
	}
}

type stateFn func(*lexer) stateFn

// emit turns the partial comment and sequence into a record.
func (l *lexer) emit() error {
	if len(l.seq) == 0 {
		return errors.New("Zero length sequence after " + trimStr(l.cmmt, 40))
	}
	s := l.seq
	if l.s_opts.RmvGapsRd {
		s = rmvGaps(s)
	}
	id, desc := splitCmmt(l.cmmt)
	r := &Record{ID: id, Desc: desc, Seq: s}
	if org, ok := species(l.cmmt); ok {
		r.Organism = org
	}
	if err := checkSyms(r); err != nil {
		return err
	}
	l.seqgrp.recs = append(l.seqgrp.recs, r)
	l.cmmt = ""
	l.seq = nil
	return nil
}

// We are reading a sequence
func gseq(l *lexer) stateFn {
	item, ok := <-l.ichan
	if !ok {
		return nil
	}
	defer l.itempool.Put(item)

	white.Remove(&item.data)
	l.seq = append(l.seq, item.data...)
	if !item.complete {
		return gseq
	}
	if l.err = l.emit(); l.err != nil {
		return nil
	}
	return gcmmt
}

// We are reading a comment
func gcmmt(l *lexer) stateFn {
	item, ok := <-l.ichan
	if !ok {
		return nil
	}
	defer l.itempool.Put(item)
	if item.eof {
		l.err = fmt.Errorf("no sequence after comment \"%s\"", trimStr(l.cmmt, 40))
		return nil
	}

	l.cmmt = l.cmmt + string(item.data)
	if item.complete {
		return gseq
	}
	return gcmmt
}

// rmvGaps returns a copy of s without gap characters.
func rmvGaps(s []byte) []byte {
	t := make([]byte, 0, len(s))
	for _, c := range s {
		if !common.IsGap(c) {
			t = append(t, c)
		}
	}
	return t
}

// ReadFasta reads fasta formatted files. Records are appended to seqgrp.
// Unless s_opts.DiffLenSeq is set, all the sequences have to be the
// same length, as they are in an alignment.
func ReadFasta(rdr io.Reader, seqgrp *SeqGrp, s_opts *Options) error {
	if s_opts == nil {
		s_opts = &Options{}
	}
	l := lexer{rdr: rdr, ichan: make(chan *item, 2), seqgrp: seqgrp,
		s_opts: s_opts, term: NL}
	l.itempool.New = newItem

	go l.next()
	for state := stateFn(gcmmt); state != nil; {
		state = state(&l)
	}
	for range l.ichan { // If we stopped early, let next() finish
	}
	if l.rdErr != nil {
		return l.rdErr
	}
	if l.err != nil {
		return l.err
	}
	if seqgrp.NSeq() == 0 {
		return errors.New("No sequences found")
	}
	if !s_opts.DiffLenSeq {
		return seqgrp.checkLengths()
	}
	return nil
}

// Readfile takes a filename and reads sequences from it.
// An empty name or "-" means standard input.
func Readfile(fname string, s_opts *Options) (*SeqGrp, error) {
	var seqgrp = new(SeqGrp)
	var rdr io.Reader = os.Stdin // don't use a file. It could be stdin.

	if fname != "" && fname != "-" {
		fp, err := os.Open(fname)
		if err != nil {
			return nil, err
		}
		defer fp.Close()
		rdr = fp
	}

	if err := ReadFasta(rdr, seqgrp, s_opts); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fname, err)
	}
	return seqgrp, nil
}

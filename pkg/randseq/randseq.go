// 31 July 2020

// Package randseq makes random nucleotide alignments. They are
// used for testing readers and the consensus code, so everything
// comes from a seeded generator and is repeatable.
package randseq

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
)

const (
	nPadWhite = 9 // For padding for adding whitespace to sequences
)

var letters = []byte{'A', 'C', 'G', 'T'}

// RandSeqArgs is the set of arguments passed to the main function
type RandSeqArgs struct {
	Iseed  int64     // random number seed
	Wrtr   io.Writer // where we write to
	Cmmt   string    // Comment for the sequences
	Nseq   int       // number of sequences
	Len    int       // Length of sequences (alignment columns)
	NoGap  bool      // Do not add gaps
	Ragged bool      // Add leading and trailing gaps, like partial reads
	Lower  bool      // write lower case, as mafft does
}

// getseq returns a byte slice with a random sequence in it. There is
// space left at the end for white space to be added later.
func getseq(args *RandSeqArgs, rnd *rand.Rand) []byte {
	space := args.Len + (args.Len / nPadWhite) // about 10% rubbish white space
	ret := make([]byte, args.Len, space)
	for i := range ret {
		ret[i] = letters[rnd.Intn(len(letters))]
		if !args.NoGap && rnd.Intn(8) == 0 {
			ret[i] = '-'
		}
		if args.Lower {
			ret[i] |= 0x20 // '-' is unchanged
		}
	}
	if args.Ragged && args.Len > 2 {
		lead := rnd.Intn(args.Len / 2)
		trail := rnd.Intn(args.Len / 2)
		for i := 0; i < lead; i++ {
			ret[i] = '-'
		}
		for i := args.Len - trail; i < args.Len; i++ {
			ret[i] = '-'
		}
	}
	mid := args.Len / 2 // Every row needs at least one residue
	if args.Len > 0 && ret[mid] == '-' {
		ret[mid] = letters[rnd.Intn(len(letters))]
		if args.Lower {
			ret[mid] |= 0x20
		}
	}
	return ret
}

// Aln returns a random alignment as rows of equal length. It does not
// look at Wrtr or Cmmt.
func Aln(args *RandSeqArgs) [][]byte {
	rnd := rand.New(rand.NewSource(args.Iseed))
	rows := make([][]byte, args.Nseq)
	for i := range rows {
		rows[i] = getseq(args, rnd)
	}
	return rows
}

// addInner is used by addspace to add a space or newline
func addInner(s []byte, n int, c byte, spacernd *rand.Rand) []byte {
	for i := 0; i < n; i++ {
		s = append(s, 0)
		pos := spacernd.Intn(len(s))
		copy(s[pos+1:], s[pos:])
		s[pos] = c
	}
	return s
}

// addspace is given a byte array and adds white characters at random
// positions. We work out how much space is to be used. We flip a coin.
// Heads we don't add a newline. Tails we make about 1/10 (integer 1/9)
// of the spaces to be newlines.
func addspace(s []byte, spacernd *rand.Rand) []byte {
	toAdd := cap(s) - len(s)
	nNL := 0 // Number of new lines to add
	if spacernd.Intn(2) == 0 {
		nNL = toAdd / 9
	}
	s = addInner(s, toAdd-nNL, ' ', spacernd)
	s = addInner(s, nNL, '\n', spacernd)
	return s
}

// writeseq takes a bytestring which is our sequence. It adds a comment
// and sends it out for writing. n is the number of the sequence, so the
// output has comment lines "> something 1, > something 2..."
func writeseq(sChan <-chan []byte, args *RandSeqArgs, wg *sync.WaitGroup, err *error) {
	defer wg.Done()

	width := len(fmt.Sprintf("%d", args.Nseq))
	spacernd := rand.New(rand.NewSource(args.Iseed + 1))
	var i int
	for s := range sChan {
		i++
		if *err != nil {
			continue // keep draining, so the sender is not stuck
		}
		s = addspace(s, spacernd)
		_, *err = fmt.Fprintf(args.Wrtr, "> %s %[2]*d\n%s\n", args.Cmmt, width, i, s)
	}
}

// RandSeqMain writes random sequences to an io.Writer in fasta format,
// with white space sprinkled through the sequences.
func RandSeqMain(args *RandSeqArgs) error {
	var wg sync.WaitGroup
	var err error
	rnd := rand.New(rand.NewSource(args.Iseed))
	sChan := make(chan []byte)
	wg.Add(1)
	go writeseq(sChan, args, &wg, &err)
	for i := 0; i < args.Nseq; i++ {
		sChan <- getseq(args, rnd)
	}
	close(sChan)
	wg.Wait()
	return err
}

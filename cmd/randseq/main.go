// 31 July 2020

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/andrew-torda/seqcons/pkg/randseq"
	. "github.com/andrew-torda/seqcons/pkg/seq/common"
)

func main() {
	f := flag.NewFlagSet("randseq", flag.ExitOnError)
	const iseed int64 = 1637
	var args randseq.RandSeqArgs

	f.BoolVar(&args.NoGap, "g", false, "do not put gaps in sequences")
	f.BoolVar(&args.Ragged, "p", false, "leading and trailing gaps, like partial reads")
	f.BoolVar(&args.Lower, "l", false, "lower case output")
	f.StringVar(&args.Cmmt, "c", "seq", "comment for fasta headers")
	f.Int64Var(&args.Iseed, "r", iseed, "random number seed")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(f.Output(), err)
		os.Exit(ExitUsageError)
	}
	if f.NArg() != 3 {
		fmt.Fprintln(f.Output(), "Wrong number of args\nrandseq [..] file nseq length")
		f.Usage()
		os.Exit(ExitUsageError)
	}

	const emsg = "Failed converting %s to positive integer\n"
	nseq, err := strconv.ParseUint(f.Arg(1), 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, emsg, f.Arg(1))
		os.Exit(ExitUsageError)
	}
	nlen, err := strconv.ParseUint(f.Arg(2), 10, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, emsg, f.Arg(2))
		os.Exit(ExitUsageError)
	}
	args.Nseq, args.Len = int(nseq), int(nlen)

	if fname := f.Arg(0); fname == "-" || fname == "" {
		args.Wrtr = os.Stdout
	} else {
		ft, err := os.Create(fname)
		if err != nil {
			fmt.Fprintln(os.Stderr, "File for output:", err)
			os.Exit(ExitFailure)
		}
		args.Wrtr = ft
		defer ft.Close()
	}
	if err := randseq.RandSeqMain(&args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitFailure)
	}
}

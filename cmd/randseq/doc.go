// 31 July 2020

/*
Randseq makes random nucleotide alignments for testing the consensus code.
Usage:

	randseq [options] fname nseq length

will generate nseq aligned sequences of length length and write them to
fname, or to standard output if fname is "-".

Flags:

	-g
		no gaps in the output sequences
	-p
		ragged ends. Add leading and trailing gaps, like partial reads.
	-l
		write lower case, as mafft does
	-c
		comment to put in each fasta header
	-r
		random number seed

Whitespace is sprinkled through the sequences, so the output also
exercises the fasta reader.
*/
package main

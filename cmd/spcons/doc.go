// 6 Sep 2022

/*
Spcons makes a consensus sequence for each species in a genbank file.

The records are sorted by the organism they come from. Records whose
species epithet is "sp.", "aff." or "cf." go into a group called
unknown. Each species is aligned with mafft and a majority vote
consensus is made from the alignment.

Usage:

	spcons run [flags] file.gb
	spcons consensus [flags] [aligned.fasta [outfile]]
	spcons classify file.gb
	spcons gb2fasta file.gb [outfile]
	spcons config

The run command writes everything to the output directory:

	<stem>_metadata.csv         number of sequences per species
	fasta/                      one fasta file per species
	aligned/                    the mafft alignments
	consensus/                  consensus sequences and coverage plots

Two numbers control the consensus. --min-representation is the fraction
of sequences which must cover a column for it to be kept. Columns at the
ends which fail are trimmed off. --min-agreement is the fraction of the
covering sequences which must agree on a base, otherwise the base is
written as N.

Settings can also come from a TOML file given with --config. Flags win
over the file. "spcons config" prints a file with the defaults.
*/
package main

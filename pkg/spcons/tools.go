package spcons

import (
	"fmt"
	"io"

	"github.com/andrew-torda/seqcons/pkg/consensus"
	"github.com/andrew-torda/seqcons/pkg/report"
	"github.com/andrew-torda/seqcons/pkg/seq"
	"github.com/andrew-torda/seqcons/pkg/species"
)

// ConsFlags are the settings for making a consensus from an alignment
// which is already on disc.
type ConsFlags struct {
	Name     string // fasta header for the consensus. Default from infile
	PlotFile string // coverage png, if not empty
	Opts     *consensus.Options
}

// Consensus reads an alignment and writes its consensus. An empty
// infile or "-" means standard input. Likewise for outfile and output.
func Consensus(flags *ConsFlags, infile, outfile string) (*consensus.Result, error) {
	seqgrp, err := seq.Readfile(infile, &seq.Options{})
	if err != nil {
		return nil, fmt.Errorf("Fail reading sequences: %w", err)
	}
	res, err := consensus.Build(seqgrp.Rows(), flags.Opts)
	if err != nil {
		return nil, err
	}
	name := flags.Name
	switch {
	case name != "":
	case infile == "" || infile == "-":
		name = "consensus"
	default:
		name = inputStem(infile)
	}
	if err := writeConsensusFile(outfile, name, res.Seq); err != nil {
		return nil, err
	}
	if flags.PlotFile != "" {
		minRep := consensus.DefaultMinRepresentation
		if flags.Opts != nil {
			minRep = flags.Opts.MinRepresentation
		}
		if err := report.WritePlotFile(flags.PlotFile, name, res, minRep); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Classify reads a genbank file and sorts its records by species.
func Classify(gbfile string) (*species.Groups, error) {
	recs, err := seq.ReadGenbankFile(gbfile)
	if err != nil {
		return nil, fmt.Errorf("Fail reading genbank file: %w", err)
	}
	return species.Classify(recs)
}

// Gb2Fasta converts a genbank file to fasta. It returns the number of
// records read. Records without residues are not written.
func Gb2Fasta(w io.Writer, gbfile string) (int, error) {
	recs, err := seq.ReadGenbankFile(gbfile)
	if err != nil {
		return 0, fmt.Errorf("Fail reading genbank file: %w", err)
	}
	if err := seq.WriteFasta(w, recs, nil); err != nil {
		return 0, err
	}
	return len(recs), nil
}

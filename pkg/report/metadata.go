package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/andrew-torda/seqcons/pkg/species"
)

// WriteMetadata writes two summary lines, then a csv table of the number
// of sequences per species, biggest first. The unknown group is counted
// in the table but not as a species.
func WriteMetadata(w io.Writer, g *species.Groups) error {
	if _, err := fmt.Fprintf(w, "Total # of species: %d\n", g.NSpecies()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# Sequences w/o species identity: %d\n", g.NUnknown()); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true // what python's csv module writes
	if err := cw.Write([]string{"species", "#_sequences"}); err != nil {
		return err
	}
	for _, c := range g.Counts() {
		if err := cw.Write([]string{c.Key, strconv.Itoa(c.N)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetadataFile writes the metadata to a named file.
func WriteMetadataFile(fname string, g *species.Groups) (err error) {
	fp, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("creating metadata file: %w", err)
	}
	defer func() {
		if e := fp.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return WriteMetadata(fp, g)
}

// WriteConsensus writes a consensus as a single fasta record on one line.
func WriteConsensus(w io.Writer, name, cons string) error {
	_, err := fmt.Fprintf(w, ">%s\n%s\n", name, cons)
	return err
}

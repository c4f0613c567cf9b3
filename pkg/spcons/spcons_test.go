package spcons_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/andrew-torda/seqcons/pkg/align"
	"github.com/andrew-torda/seqcons/pkg/config"
	"github.com/andrew-torda/seqcons/pkg/consensus"
	"github.com/andrew-torda/seqcons/pkg/logging"
	"github.com/andrew-torda/seqcons/pkg/seq"
	. "github.com/andrew-torda/seqcons/pkg/spcons"
)

// gbEntry makes a minimal genbank entry.
func gbEntry(acc, organism, residues string) string {
	return "LOCUS       " + acc + "\n" +
		"ACCESSION   " + acc + "\n" +
		"SOURCE      " + organism + "\n" +
		"  ORGANISM  " + organism + "\n" +
		"            Eukaryota.\n" +
		"ORIGIN\n" +
		"        1 " + residues + "\n" +
		"//\n"
}

var gbFile = gbEntry("A1", "Rattus rattus", "acgtacgtac") +
	gbEntry("A2", "Mus musculus", "ttttgggg") +
	gbEntry("A3", "Rattus rattus", "acgtacgaac") +
	gbEntry("A4", "Rattus sp.", "cccc") +
	gbEntry("A5", "Rattus rattus", "acgtacgtacgg") +
	gbEntry("A6", "Apodemus sylvaticus/flavicollis", "gattaca")

func writeGb(t *testing.T, dir, body string) string {
	t.Helper()
	fname := filepath.Join(dir, "cytb.gb")
	if err := os.WriteFile(fname, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return fname
}

// padAligner "aligns" by adding gaps to the end of the shorter sequences.
type padAligner struct {
	mu     sync.Mutex
	calls  map[int]int // number of sequences -> times called
	failOn int         // fail when asked to align this many
}

func (p *padAligner) Align(ctx context.Context, recs []*seq.Record) (*seq.SeqGrp, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = make(map[int]int)
	}
	p.calls[len(recs)]++
	p.mu.Unlock()
	if p.failOn != 0 && len(recs) == p.failOn {
		return nil, align.ErrAlignerFailed
	}
	n := 0
	for _, r := range recs {
		n = max(n, r.Len())
	}
	out := make([]*seq.Record, len(recs))
	for i, r := range recs {
		s := append([]byte(strings.ToLower(string(r.Seq))), bytes.Repeat([]byte{'-'}, n-r.Len())...)
		out[i] = &seq.Record{ID: r.ID, Seq: s}
	}
	return seq.NewSeqGrp(out), nil
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.OutputDir = dir
	cfg.Workers = 2
	return &cfg
}

func readFile(t *testing.T, parts ...string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(parts...))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	gb := writeGb(t, dir, gbFile)
	core, observed := observer.New(zap.InfoLevel)
	aligner := &padAligner{}

	res, err := Run(context.Background(), &Args{
		GbFile: gb, Cfg: testConfig(out), Aligner: aligner, Logger: zap.New(core),
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.NRecord != 6 || res.Groups.NSpecies() != 3 || res.RunID == "" {
		t.Fatalf("unexpected result %+v", res)
	}

	meta := readFile(t, out, "cytb_metadata.csv")
	wantMeta := "Total # of species: 3\n# Sequences w/o species identity: 1\n" +
		"species,#_sequences\r\nRattus rattus,3\r\nunknown,1\r\nMus musculus,1\r\n" +
		"Apodemus sylvaticus/flavicollis,1\r\n"
	if diff := cmp.Diff(wantMeta, meta); diff != "" {
		t.Fatalf("metadata (-want +got):\n%s", diff)
	}

	for _, f := range []string{"unknown.fasta", "Rattus-rattus.fasta", "Mus-musculus.fasta",
		"Apodemus-sylvaticus_flavicollis.fasta"} {
		if _, err := os.Stat(filepath.Join(out, DirFasta, f)); err != nil {
			t.Errorf("missing fasta file %s", f)
		}
	}
	if _, err := os.Stat(filepath.Join(out, DirAligned, "unknown_aligned.fasta")); err == nil {
		t.Error("unknown group should not be aligned by default")
	}

	// Rattus rattus: three sequences, the last is two longer
	cons := readFile(t, out, DirConsensus, "Rattus-rattus_consensus.fasta")
	if cons != ">Rattus-rattus\nACGTACGNAC\n" {
		t.Fatalf("consensus got %q", cons)
	}
	aln := readFile(t, out, DirAligned, "Rattus-rattus_aligned.fasta")
	if strings.Count(aln, ">") != 3 || !strings.Contains(aln, "acgtacgtac--") {
		t.Fatalf("aligned file:\n%s", aln)
	}
	if _, err := os.Stat(filepath.Join(out, DirConsensus, "Rattus-rattus_coverage.png")); err != nil {
		t.Error("missing coverage plot")
	}

	gotSpecies := make([]string, len(res.Summaries))
	for i, s := range res.Summaries {
		gotSpecies[i] = s.Species
	}
	want := []string{"Rattus rattus", "Mus musculus", "Apodemus sylvaticus/flavicollis"}
	if diff := cmp.Diff(want, gotSpecies); diff != "" {
		t.Fatalf("summaries (-want +got):\n%s", diff)
	}
	if s := res.Summaries[0]; s.NSeq != 3 || s.NCol != 12 || s.Result.Left != 0 || s.Result.Right != 10 {
		t.Fatalf("Rattus rattus summary %+v %+v", s, s.Result)
	}

	for _, e := range observed.All() {
		found := false
		for _, f := range e.Context {
			if f.Key == logging.FieldRunID && f.String == res.RunID {
				found = true
			}
		}
		if !found {
			t.Fatalf("log entry %q has no run id", e.Message)
		}
	}
	if observed.FilterMessage("consensus").Len() != 3 {
		t.Fatalf("expected 3 consensus log entries, got %d", observed.FilterMessage("consensus").Len())
	}
}

func TestRunIncludeUnknownNoPlot(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.IncludeUnknown = true
	cfg.Report.Plot = false
	res, err := Run(context.Background(), &Args{GbFile: writeGb(t, dir, gbFile), Cfg: cfg, Aligner: &padAligner{}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(res.Summaries) != 4 || res.Summaries[0].Species != "unknown" {
		t.Fatalf("unknown group should be first, got %d summaries", len(res.Summaries))
	}
	if got := readFile(t, dir, DirConsensus, "unknown_consensus.fasta"); got != ">unknown\nCCCC\n" {
		t.Fatalf("got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, DirConsensus, "*.png"))
	if len(matches) != 0 {
		t.Fatalf("plots written with plot off: %v", matches)
	}
}

func TestRunAlignerFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), &Args{
		GbFile: writeGb(t, dir, gbFile), Cfg: testConfig(dir), Aligner: &padAligner{failOn: 3},
	})
	if !errors.Is(err, align.ErrAlignerFailed) {
		t.Fatalf("want ErrAlignerFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Rattus rattus") {
		t.Fatalf("error should name the species: %v", err)
	}
}

func TestRunBadInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := Run(context.Background(), &Args{GbFile: filepath.Join(dir, "none.gb"), Cfg: testConfig(dir)}); err == nil {
		t.Fatal("expected error for missing file")
	}
	bad := gbEntry("B1", "Rattus", "acgt")
	_, err := Run(context.Background(), &Args{GbFile: writeGb(t, dir, bad), Cfg: testConfig(dir), Aligner: &padAligner{}})
	if err == nil || !strings.Contains(err.Error(), "B1") {
		t.Fatalf("expected malformed annotation naming B1, got %v", err)
	}
}

func TestRunLocked(t *testing.T) {
	dir := t.TempDir()
	gb := writeGb(t, dir, gbFile)
	unlock := LockDir(t, dir)
	defer unlock()
	_, err := Run(context.Background(), &Args{GbFile: gb, Cfg: testConfig(dir), Aligner: &padAligner{}})
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("want ErrLocked, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := testConfig(dir)
	cfg.Aligner.Binary = "spcons-no-such-aligner"
	_, err := Run(ctx, &Args{GbFile: writeGb(t, dir, gbFile), Cfg: cfg})
	if err == nil {
		t.Fatal("expected an error with a cancelled context")
	}
}

func TestStem(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Mus musculus", "Mus-musculus"},
		{"Mus  musculus\tdomesticus", "Mus--musculus-domesticus"},
		{"A b/c", "A-b_c"},
		{"Café x", "Café-x"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := Stem(tt.in); got != tt.want {
			t.Errorf("Stem(%q) = %q want %q", tt.in, got, tt.want)
		}
	}
	got := Stems([]string{"A b", "A-b", "A/b", "A_b"})
	want := map[string]string{"A b": "A-b", "A-b": "A-b-2", "A/b": "A_b", "A_b": "A_b-2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stems (-want +got):\n%s", diff)
	}
}

const alnFasta = `>s1 first
AC-GT
>s2
ACGGT
>s3
-CGGT
`

func TestConsensus(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "small_aligned.fasta")
	if err := os.WriteFile(in, []byte(alnFasta), 0o644); err != nil {
		t.Fatal(err)
	}
	outFile := filepath.Join(dir, "cons.fasta")
	plot := filepath.Join(dir, "cov.png")
	flags := &ConsFlags{PlotFile: plot, Opts: &consensus.Options{MinAgreement: 0.6, MinRepresentation: 0.5}}
	res, err := Consensus(flags, in, outFile)
	if err != nil {
		t.Fatal(err)
	}
	if res.Seq != "ACGGT" {
		t.Fatalf("got %s", res.Seq)
	}
	if got := readFile(t, outFile); got != ">small_aligned\nACGGT\n" {
		t.Fatalf("got %q", got)
	}
	if _, err := os.Stat(plot); err != nil {
		t.Fatal("no plot")
	}
	if _, err := Consensus(&ConsFlags{}, filepath.Join(dir, "nothere"), outFile); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestClassifyAndGb2Fasta(t *testing.T) {
	dir := t.TempDir()
	gb := writeGb(t, dir, gbFile)
	g, err := Classify(gb)
	if err != nil {
		t.Fatal(err)
	}
	if g.NSpecies() != 3 || g.NUnknown() != 1 {
		t.Fatalf("got %d species %d unknown", g.NSpecies(), g.NUnknown())
	}
	var b bytes.Buffer
	n, err := Gb2Fasta(&b, gb)
	if err != nil || n != 6 {
		t.Fatalf("Gb2Fasta got %d %v", n, err)
	}
	var grp seq.SeqGrp
	if err := seq.ReadFasta(&b, &grp, &seq.Options{DiffLenSeq: true}); err != nil {
		t.Fatal(err)
	}
	if grp.NSeq() != 6 || string(grp.SeqSlc()[0].Seq) != "ACGTACGTAC" {
		t.Fatalf("read back %d sequences", grp.NSeq())
	}
}

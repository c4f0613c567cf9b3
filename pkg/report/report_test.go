package report_test

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/andrew-torda/seqcons/pkg/consensus"
	. "github.com/andrew-torda/seqcons/pkg/report"
	"github.com/andrew-torda/seqcons/pkg/seq"
	"github.com/andrew-torda/seqcons/pkg/species"
)

func groups(t *testing.T, orgs ...string) *species.Groups {
	t.Helper()
	recs := make([]*seq.Record, len(orgs))
	for i, o := range orgs {
		recs[i] = &seq.Record{ID: "r", Organism: o, Seq: []byte("A")}
	}
	g, err := species.Classify(recs)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestWriteMetadata(t *testing.T) {
	g := groups(t, "Mus musculus", "Rattus sp.", "Rattus rattus", "Rattus rattus", "Mus, musculus x")
	var b bytes.Buffer
	if err := WriteMetadata(&b, g); err != nil {
		t.Fatal(err)
	}
	want := "Total # of species: 3\n" +
		"# Sequences w/o species identity: 1\n" +
		"species,#_sequences\r\n" +
		"Rattus rattus,2\r\n" +
		"unknown,1\r\n" +
		"Mus musculus,1\r\n" +
		"\"Mus, musculus x\",1\r\n"
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Fatalf("metadata (-want +got):\n%s", diff)
	}
}

func TestWriteMetadataFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "x_metadata.csv")
	if err := WriteMetadataFile(fname, groups(t)); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "Total # of species: 0\n# Sequences w/o species identity: 0\n") {
		t.Fatalf("got %q", b)
	}
}

func TestWriteConsensus(t *testing.T) {
	var b bytes.Buffer
	if err := WriteConsensus(&b, "Mus-musculus", "ACGN"); err != nil {
		t.Fatal(err)
	}
	if b.String() != ">Mus-musculus\nACGN\n" {
		t.Fatalf("got %q", b.String())
	}
}

func result(t *testing.T) *consensus.Result {
	t.Helper()
	aln := [][]byte{[]byte("--ACGTAC"), []byte("TTACGAAC"), []byte("--ACGTA-")}
	res, err := consensus.Build(aln, nil)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRenderTable(t *testing.T) {
	rows := []Summary{
		{Species: "Mus musculus", NSeq: 3, NCol: 8, Result: result(t)},
		{Species: "Rattus rattus", NSeq: 1, NCol: 5, Note: "aligner failed"},
	}
	plain := RenderTable(rows, false)
	for _, want := range []string{"Mus musculus", "Rattus rattus", "aligner failed", "6"} {
		if !strings.Contains(plain, want) {
			t.Errorf("table should contain %q:\n%s", want, plain)
		}
	}
	if strings.ContainsAny(plain, "╭╮─") {
		t.Errorf("plain table has fancy borders:\n%s", plain)
	}
	// Headers and footers may be upper cased by the table style
	lower := strings.ToLower(plain)
	if !strings.Contains(lower, "cons len") || !strings.Contains(lower, "total 2") {
		t.Errorf("missing header or footer:\n%s", plain)
	}
	if fancy := RenderTable(rows, true); !strings.Contains(fancy, "╭") {
		t.Errorf("fancy table should use rounded corners:\n%s", fancy)
	}
	if RenderTable(nil, true) != "" {
		t.Error("no rows should give no table")
	}

	var b bytes.Buffer
	if err := PrintTable(&b, rows); err != nil {
		t.Fatal(err)
	}
	if b.String() != plain+"\n" {
		t.Error("a buffer is not a terminal, so the table should be plain")
	}
}

func TestCoverageImage(t *testing.T) {
	res := result(t)
	img, err := CoverageImage(res, 0.5, "")
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != 8*8+20 || b.Dy() <= 200 {
		t.Fatalf("unexpected size %v", b)
	}
	// Column 0 is trimmed, column 2 is kept. Look just above the axis.
	y := 10 + 200 - 1
	trimmed, kept := img.RGBAAt(10+1, y), img.RGBAAt(10+2*8+1, y)
	if trimmed == (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Fatal("column 0 not drawn")
	}
	if trimmed == kept {
		t.Fatalf("kept and trimmed columns should differ, both %v", kept)
	}
	if kept.B <= kept.R {
		t.Fatalf("kept columns should be blue, got %v", kept)
	}
}

func TestCoverageImageCaption(t *testing.T) {
	res := result(t)
	bare, err := CoverageImage(res, 0.5, "")
	if err != nil {
		t.Fatal(err)
	}
	withText, err := CoverageImage(res, 0.5, Caption("Mus musculus", res))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(bare.Pix, withText.Pix) {
		t.Fatal("caption was not drawn")
	}
	if c := Caption("Mus musculus", res); !strings.Contains(c, "kept [2,8)") {
		t.Fatalf("caption %q", c)
	}
}

func TestWritePlot(t *testing.T) {
	// Wide alignments are squeezed into the plot
	res := &consensus.Result{Coverage: make([]int, 2000), NRow: 4, Left: 10, Right: 1900}
	for i := range res.Coverage {
		res.Coverage[i] = 4
	}
	var b bytes.Buffer
	if err := WritePlot(&b, "wide", res, 0.5); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&b)
	if err != nil {
		t.Fatal("not a png", err)
	}
	if img.Bounds().Dx() != 800+20 {
		t.Fatalf("width %d", img.Bounds().Dx())
	}

	empty := &consensus.Result{NRow: 1}
	if err := WritePlotFile(filepath.Join(t.TempDir(), "e.png"), "empty", empty, 0.5); err != nil {
		t.Fatal("a zero column plot should still be written", err)
	}
}

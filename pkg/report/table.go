package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/andrew-torda/seqcons/pkg/consensus"
)

// Summary is one line of the table, the outcome for one species.
type Summary struct {
	Species string
	NSeq    int
	NCol    int               // alignment columns
	Result  *consensus.Result // nil if there was no consensus
	Note    string            // why there is no consensus, or other remarks
}

var headers = table.Row{"species", "seqs", "aln cols", "left", "right", "cons len", "N"}

// rightCols are the numeric columns, counting from 1.
var rightCols = []int{2, 3, 4, 5, 6, 7}

func (s *Summary) row() table.Row {
	r := table.Row{s.Species, s.NSeq, s.NCol, "", "", "", ""}
	if s.Result != nil {
		r[3], r[4] = s.Result.Left, s.Result.Right
		r[5], r[6] = s.Result.Len(), s.Result.NAmbig()
	}
	if s.Note != "" {
		r[5] = s.Note
	}
	return r
}

// RenderTable formats the summaries. Fancy borders are only used if
// fancy is set.
func RenderTable(rows []Summary, fancy bool) string {
	if len(rows) == 0 {
		return ""
	}
	tw := table.NewWriter()
	if fancy {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.AppendHeader(headers)
	nseq := 0
	for i := range rows {
		tw.AppendRow(rows[i].row())
		nseq += rows[i].NSeq
	}
	tw.AppendFooter(table.Row{"total " + strconv.Itoa(len(rows)), nseq})

	configs := make([]table.ColumnConfig, 0, len(rightCols))
	for _, n := range rightCols {
		configs = append(configs, table.ColumnConfig{
			Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// isTerminal says if w is a terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// PrintTable writes the table to w, with fancy borders if w is a terminal.
func PrintTable(w io.Writer, rows []Summary) error {
	s := RenderTable(rows, isTerminal(w))
	if s == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, s)
	return err
}

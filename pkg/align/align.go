// Package align runs an external multiple sequence aligner.
//
// Nothing here knows how to align sequences. The Mafft type writes the
// sequences to a temporary fasta file, runs the mafft binary on it and
// reads the alignment back from its standard output.
package align

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-torda/seqcons/pkg/logging"
	"github.com/andrew-torda/seqcons/pkg/seq"
)

// ErrAlignerFailed wraps anything that goes wrong running the aligner.
var ErrAlignerFailed = errors.New("aligner failed")

// Aligner turns a set of unaligned records into an alignment, rows in
// the same order as the input.
type Aligner interface {
	Align(ctx context.Context, recs []*seq.Record) (*seq.SeqGrp, error)
}

// Executor runs a command and returns its standard output.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Mafft runs the mafft program.
type Mafft struct {
	binary  string
	args    []string
	exec    Executor
	logger  *zap.Logger
	timeout time.Duration
	tmpDir  string
}

// Option changes a Mafft.
type Option func(*Mafft)

// WithExecutor replaces the default os/exec runner. Tests use it.
func WithExecutor(e Executor) Option { return func(m *Mafft) { m.exec = e } }

// WithLogger sets where progress goes.
func WithLogger(l *zap.Logger) Option { return func(m *Mafft) { m.logger = l } }

// WithTimeout limits each run. Zero means no limit.
func WithTimeout(d time.Duration) Option { return func(m *Mafft) { m.timeout = d } }

// WithTempDir says where the input file is written. The default is the
// system temporary directory.
func WithTempDir(dir string) Option { return func(m *Mafft) { m.tmpDir = dir } }

// NewMafft returns an aligner running binary with args. The name of the
// input file is added as the last argument.
func NewMafft(binary string, args []string, opts ...Option) *Mafft {
	m := &Mafft{
		binary: strings.TrimSpace(binary),
		args:   append([]string(nil), args...),
		exec:   commandExecutor{},
	}
	for _, o := range opts {
		o(m)
	}
	if m.exec == nil {
		m.exec = commandExecutor{}
	}
	m.logger = logging.OrNop(m.logger)
	return m
}

// writeInput puts the records in a temporary fasta file and returns its name.
func (m *Mafft) writeInput(recs []*seq.Record) (string, error) {
	fp, err := os.CreateTemp(m.tmpDir, "spcons_*.fasta")
	if err != nil {
		return "", err
	}
	name := fp.Name()
	if err := seq.WriteFasta(fp, recs, &seq.Options{RmvGapsWrt: true}); err != nil {
		fp.Close()
		os.Remove(name)
		return "", err
	}
	if err := fp.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// Align runs mafft on recs. A single record is its own alignment and
// mafft is not run. No records is an error.
func (m *Mafft) Align(ctx context.Context, recs []*seq.Record) (*seq.SeqGrp, error) {
	switch len(recs) {
	case 0:
		return nil, fmt.Errorf("%w: no sequences to align", ErrAlignerFailed)
	case 1:
		r := recs[0].Ungapped()
		return seq.NewSeqGrp([]*seq.Record{r}), nil
	}
	if m.binary == "" {
		return nil, fmt.Errorf("%w: aligner binary not configured", ErrAlignerFailed)
	}

	fname, err := m.writeInput(recs)
	if err != nil {
		return nil, fmt.Errorf("%w: writing input: %w", ErrAlignerFailed, err)
	}
	defer os.Remove(fname)

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	args := append(append([]string(nil), m.args...), fname)
	start := time.Now()
	out, err := m.exec.Run(ctx, m.binary, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAlignerFailed, m.binary, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrAlignerFailed, m.binary, err)
	}

	grp := seq.NewSeqGrp(nil)
	if err := seq.ReadFasta(bytes.NewReader(out), grp, &seq.Options{}); err != nil {
		return nil, fmt.Errorf("%w: reading output of %s: %w", ErrAlignerFailed, m.binary, err)
	}
	if grp.NSeq() != len(recs) {
		const msg = "%w: %s returned %d sequences for %d"
		return nil, fmt.Errorf(msg, ErrAlignerFailed, m.binary, grp.NSeq(), len(recs))
	}
	m.logger.Debug("aligned",
		zap.Int(logging.FieldNSeq, grp.NSeq()),
		zap.Int("n_col", grp.GetLen()),
		zap.Duration("took", time.Since(start)))
	return grp, nil
}

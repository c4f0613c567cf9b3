// 5 Sep 2022

// Package spcons is the consensus pipeline. Read a genbank file, sort the
// records by species, write each species to its own fasta file, align
// each species and write a consensus sequence for it.
//
// The output directory looks like
//
//	<stem>_metadata.csv
//	fasta/<species>.fasta
//	aligned/<species>_aligned.fasta
//	consensus/<species>_consensus.fasta
//	consensus/<species>_coverage.png
package spcons

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andrew-torda/seqcons/pkg/align"
	"github.com/andrew-torda/seqcons/pkg/config"
	"github.com/andrew-torda/seqcons/pkg/consensus"
	"github.com/andrew-torda/seqcons/pkg/logging"
	"github.com/andrew-torda/seqcons/pkg/report"
	"github.com/andrew-torda/seqcons/pkg/seq"
	"github.com/andrew-torda/seqcons/pkg/species"
)

// Sub-directories of the output directory
const (
	DirFasta     = "fasta"
	DirAligned   = "aligned"
	DirConsensus = "consensus"
	lockName     = ".spcons.lock"
)

// ErrLocked means another run is writing to the same output directory.
var ErrLocked = errors.New("output directory is in use by another run")

// Args is what Run needs.
type Args struct {
	GbFile  string
	Cfg     *config.Config // nil means config.Default()
	Aligner align.Aligner  // nil means mafft as set up in Cfg
	Logger  *zap.Logger
}

// Result is what a run did.
type Result struct {
	RunID     string
	NRecord   int
	Groups    *species.Groups
	Summaries []report.Summary // one per species that was aligned, in key order
}

// job is one species to be aligned.
type job struct {
	key, stem string
	recs      []*seq.Record
}

// run carries the settings through the pipeline.
type run struct {
	cfg     *config.Config
	aligner align.Aligner
	logger  *zap.Logger
	outDir  string
}

// warnExists logs if we are about to overwrite a file.
func (r *run) warnExists(fname string) {
	if _, err := os.Stat(fname); err == nil {
		r.logger.Warn("overwriting old file", zap.String(logging.FieldPath, fname))
	}
}

// mkdirs makes the output directory and its sub-directories.
func mkdirs(outDir string) error {
	for _, d := range []string{"", DirFasta, DirAligned, DirConsensus} {
		if err := os.MkdirAll(filepath.Join(outDir, d), 0o755); err != nil {
			return fmt.Errorf("making output directory: %w", err)
		}
	}
	return nil
}

// lock takes the advisory lock on the output directory.
func lock(outDir string) (*flock.Flock, error) {
	lk := flock.New(filepath.Join(outDir, lockName))
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outDir)
	}
	return lk, nil
}

// Run does the whole job. The first species that fails stops the rest.
func Run(ctx context.Context, args *Args) (*Result, error) {
	cfg := args.Cfg
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	runID := uuid.NewString()
	logger := logging.OrNop(args.Logger).With(zap.String(logging.FieldRunID, runID))
	aligner := args.Aligner
	if aligner == nil {
		aligner = align.NewMafft(cfg.Aligner.Binary, cfg.Aligner.Args,
			align.WithLogger(logger), align.WithTimeout(cfg.AlignTimeout()))
	}
	r := &run{cfg: cfg, aligner: aligner, logger: logger, outDir: cfg.OutputDir}

	if err := mkdirs(r.outDir); err != nil {
		return nil, err
	}
	lk, err := lock(r.outDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lk.Unlock(); err != nil {
			logger.Warn("failed to release output lock", zap.Error(err))
		}
	}()
	startTime := time.Now()

	logger.Info("Parsing Genbank file", zap.String(logging.FieldPath, args.GbFile))
	recs, err := seq.ReadGenbankFile(args.GbFile)
	if err != nil {
		return nil, fmt.Errorf("Fail reading genbank file: %w", err)
	}
	groups, err := species.Classify(recs)
	if err != nil {
		return nil, err
	}
	logger.Info("Parsing complete",
		zap.Int(logging.FieldNSeq, len(recs)),
		zap.Int("n_species", groups.NSpecies()),
		zap.Int("n_unknown", groups.NUnknown()))

	metaFile := filepath.Join(r.outDir, inputStem(args.GbFile)+"_metadata.csv")
	r.warnExists(metaFile)
	if err := report.WriteMetadataFile(metaFile, groups); err != nil {
		return nil, err
	}

	keys := groups.Keys()
	stemOf := stems(keys)
	for _, k := range keys {
		fname := filepath.Join(r.outDir, DirFasta, stemOf[k]+".fasta")
		if err := seq.WriteToF(fname, groups.Get(k), nil); err != nil {
			return nil, fmt.Errorf("writing %s: %w", k, err)
		}
	}

	jobs := r.jobs(groups, stemOf)
	summaries := make([]report.Summary, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.NWorkers())
	for i, j := range jobs {
		g.Go(func() error {
			s, err := r.doSpecies(gctx, j)
			if err != nil {
				return fmt.Errorf("species %s: %w", j.key, err)
			}
			summaries[i] = *s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("Consensus sequences generated",
		zap.Int("n_species", len(jobs)),
		zap.Duration("took", time.Since(startTime)))
	return &Result{RunID: runID, NRecord: len(recs), Groups: groups, Summaries: summaries}, nil
}

// jobs lists the species to align. Empty groups are skipped and so is
// the unknown group, unless it was asked for. Empty records are dropped.
func (r *run) jobs(groups *species.Groups, stemOf map[string]string) []job {
	var jobs []job
	for _, k := range groups.Keys() {
		if k == species.Unknown && !r.cfg.IncludeUnknown {
			continue
		}
		var recs []*seq.Record
		for _, rec := range groups.Get(k) {
			if rec.Len() == 0 {
				r.logger.Warn("skipping empty sequence",
					zap.String(logging.FieldSpecies, k), zap.String("id", rec.ID))
				continue
			}
			recs = append(recs, rec)
		}
		if len(recs) == 0 {
			continue
		}
		jobs = append(jobs, job{key: k, stem: stemOf[k], recs: recs})
	}
	return jobs
}

// doSpecies aligns one species, writes the alignment, builds and writes
// the consensus.
func (r *run) doSpecies(ctx context.Context, j job) (*report.Summary, error) {
	logger := r.logger.With(zap.String(logging.FieldSpecies, j.key))
	logger.Info("being aligned", zap.Int(logging.FieldNSeq, len(j.recs)))
	aln, err := r.aligner.Align(ctx, j.recs)
	if err != nil {
		return nil, err
	}
	alnFile := filepath.Join(r.outDir, DirAligned, j.stem+"_aligned.fasta")
	if err := seq.WriteToF(alnFile, aln.SeqSlc(), nil); err != nil {
		return nil, err
	}
	logger.Info("aligned", zap.Int("n_col", aln.GetLen()))

	res, err := consensus.Build(aln.Rows(), r.cfg.ConsensusOptions())
	if err != nil {
		return nil, err
	}
	summary := &report.Summary{Species: j.key, NSeq: aln.NSeq(), NCol: aln.GetLen(), Result: res}
	if res.Len() == 0 {
		summary.Note = "no column passed"
		logger.Warn("empty consensus", zap.Float64("min_representation", r.cfg.MinRepresentation))
	}

	consFile := filepath.Join(r.outDir, DirConsensus, j.stem+"_consensus.fasta")
	if err := writeConsensusFile(consFile, j.stem, res.Seq); err != nil {
		return nil, err
	}
	if r.cfg.Report.Plot {
		plotFile := filepath.Join(r.outDir, DirConsensus, j.stem+"_coverage.png")
		if err := report.WritePlotFile(plotFile, j.key, res, r.cfg.MinRepresentation); err != nil {
			return nil, err
		}
	}
	logger.Info("consensus", zap.Int("len", res.Len()), zap.Int("n_ambig", res.NAmbig()))
	logger.Debug("consensus sequence", zap.String("seq", res.Seq))
	return summary, nil
}

// writeConsensusFile writes a consensus to a named file, or standard
// output if the name is empty or "-".
func writeConsensusFile(fname, name, cons string) (err error) {
	if fname == "" || fname == "-" {
		return report.WriteConsensus(os.Stdout, name, cons)
	}
	fp, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("creating consensus file: %w", err)
	}
	defer func() {
		if e := fp.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return report.WriteConsensus(fp, name, cons)
}

package review

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/diffparse"
	"github.com/sanix-darker/localreview/internal/filter"
	"github.com/sanix-darker/localreview/internal/logger"
)

// Pipeline runs eligibility and analysis over the change records of a run,
// one file at a time.
type Pipeline struct {
	rules    filter.Rules
	analyzer *Analyzer
	runID    string
	log      *logger.Logger
}

// NewPipeline creates a Pipeline. Every run gets its own identifier, attached
// to the debug events it logs.
func NewPipeline(rules filter.Rules, analyzer *Analyzer) *Pipeline {
	runID := uuid.NewString()
	log := logger.Named("pipeline").With().Str("run_id", runID).Logger()
	return &Pipeline{
		rules:    rules,
		analyzer: analyzer,
		runID:    runID,
		log:      &log,
	}
}

// RunID identifies this pipeline in logs.
func (p *Pipeline) RunID() string { return p.runID }

// Outcomes yields one Outcome per record, in input order. At most one model
// request is in flight. When ctx is canceled the sequence ends before the
// next record; a request aborted by the cancellation yields nothing.
func (p *Pipeline) Outcomes(ctx context.Context, records []diffparse.ChangeRecord) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		for _, rec := range records {
			if ctx.Err() != nil {
				p.log.Debug().Str("file", rec.Path).Msg("run canceled")
				return
			}

			out := Outcome{
				Record:    rec,
				Decision:  p.rules.Decide(rec),
				SizeLimit: p.rules.MaxFileSize(),
			}

			if out.Decision == filter.Analyze {
				start := time.Now()
				out.Parsed, out.Err = p.analyzer.Analyze(ctx, rec)
				out.Elapsed = time.Since(start)

				if out.Err != nil && ctx.Err() != nil {
					p.log.Debug().Str("file", rec.Path).Dur("elapsed", out.Elapsed).Msg("request canceled")
					return
				}
			}

			p.logOutcome(out)
			if !yield(out) {
				return
			}
		}
	}
}

func (p *Pipeline) logOutcome(out Outcome) {
	ev := p.log.Debug().
		Str("file", out.Record.Path).
		Str("decision", out.Decision.String()).
		Dur("elapsed", out.Elapsed)

	switch parsed := out.Parsed.(type) {
	case core.ParsedOK:
		ev = ev.Int("findings", len(parsed.Findings))
	case core.ParsedMalformed:
		ev = ev.Bool("malformed", true)
	}
	if out.Err != nil {
		ev = ev.Str("error_code", string(core.CodeOf(out.Err))).Err(out.Err)
	}
	ev.Msg("file processed")
}

// Run consumes Outcomes, calls observer after each one and aggregates the
// result. The report is flagged Interrupted when ctx was canceled before
// every record was processed.
func (p *Pipeline) Run(ctx context.Context, records []diffparse.ChangeRecord, observer Observer) Report {
	outcomes := make([]Outcome, 0, len(records))
	for out := range p.Outcomes(ctx, records) {
		outcomes = append(outcomes, out)
		if observer == nil {
			continue
		}
		prog := Progress{Done: len(outcomes), Total: len(records), Outcome: out}
		if len(outcomes) < len(records) {
			prog.Next = &records[len(outcomes)]
		}
		observer(prog)
	}

	rep := Aggregate(outcomes)
	rep.Files = len(records)
	rep.Interrupted = len(outcomes) < len(records)

	p.log.Debug().
		Int("files", rep.Files).
		Int("processed", rep.Processed).
		Int("errors", rep.Summary.Errors).
		Int("warnings", rep.Summary.Warnings).
		Int("info", rep.Summary.Info).
		Bool("interrupted", rep.Interrupted).
		Msg("run finished")
	return rep
}

/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>

The main review module that handle:
- working tree : unstaged changes of the current repository (default).
- staged       : what would be committed (--staged).
- commit range : changes between two revisions (--from/--to).
- file pair    : two files outside of git (--files old,new).
*/

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/sanix-darker/localreview/internal/common"
	"github.com/sanix-darker/localreview/internal/config"
	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/diffparse"
	"github.com/sanix-darker/localreview/internal/filter"
	"github.com/sanix-darker/localreview/internal/guidelines"
	"github.com/sanix-darker/localreview/internal/handlers"
	"github.com/sanix-darker/localreview/internal/models"
	"github.com/sanix-darker/localreview/internal/printers"
	"github.com/sanix-darker/localreview/internal/provider"
	"github.com/sanix-darker/localreview/internal/renders"
	"github.com/sanix-darker/localreview/internal/review"
)

// confirmAbove is the number of files to analyze above which the user is
// asked before the run starts.
const confirmAbove = 25

type reviewOptions struct {
	staged        bool
	from          string
	to            string
	files         string
	format        string
	noHealthCheck bool
	copy          bool
	yes           bool
	noGuidelines  bool

	// dir is where the repository is looked up, "." when empty.
	dir string
}

// NewReviewCmd: add the review command
func NewReviewCmd() *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review [--staged | --from <rev> [--to <rev>] | --files <old,new>]",
		Short: "Review local changes file by file.",
		Example: "localreview review\n" +
			"localreview review --staged --model qwen2.5-coder:7b\n" +
			"localreview review --from main --format json\n" +
			"localreview review --files old.py,new.py",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := reviewOptionsFromFlags(cmd)
			if err != nil {
				common.LogError(fmt.Sprintf("[x] %v", err), true, true, cmd.Help)
			}

			conf, err := loadConfig(cmd)
			exitOnError(err)
			exitOnError(conf.Err())

			client, err := newClient(conf)
			exitOnError(err)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := runReview(ctx, conf, client, opts)
			if errors.Is(err, errNothingToReview) {
				common.LogInfo("Nothing to review.", nil)
				return
			}
			exitOnError(err)

			exitOnError(writeReport(conf.OutWriter, rep, opts.format))
			if opts.copy {
				if err := common.SetClipboardValue(review.FormatReport(rep)); err != nil {
					common.LogError(fmt.Sprintf("[!] copy to clipboard: %v", err), false, false, nil)
				}
			}

			if rep.HasErrors() {
				stop()
				os.Exit(1)
			}
		},
	}

	flags := reviewCmd.Flags()
	models.RegisterAll(flags,
		models.FlagStruct{Label: "from", Description: "review the commit range starting at this revision"},
		models.FlagStruct{Label: "to", Description: "end of the commit range (default HEAD)"},
		models.FlagStruct{Label: "files", Description: "review the difference between two files: old,new"},
		models.FlagStruct{Label: "format", Short: "o", DefaultValue: review.FormatMarkdown, Description: "output format: text, markdown or json"},
		models.FlagStruct{Label: "backend", Description: "model service backend"},
		models.FlagStruct{Label: "endpoint", Description: "model service URL"},
		models.FlagStruct{Label: "model", Short: "m", Description: "model identifier"},
	)
	flags.Bool("staged", false, "review staged changes instead of the working tree")
	flags.StringSlice("include", nil, "only review paths matching these regular expressions")
	flags.StringSlice("exclude", nil, "never review paths matching these regular expressions")
	flags.Float64("temperature", 0, "sampling temperature")
	flags.Int("max-tokens", 0, "reply length bound")
	flags.Int64("max-file-size", 0, "files larger than this many bytes are reported, not analyzed")
	flags.Duration("timeout", 0, "per-file request timeout")
	flags.Bool("no-health-check", false, "skip the service probe before the run")
	flags.Bool("no-guidelines", false, "ignore the repository's .localreview.md, REVIEW.md and AGENTS.md rules")
	flags.Bool("copy", false, "copy the markdown report to the clipboard")
	flags.BoolP("yes", "y", false, "do not ask before large reviews")
	return reviewCmd
}

func reviewOptionsFromFlags(cmd *cobra.Command) (reviewOptions, error) {
	flags := cmd.Flags()
	opts := reviewOptions{
		from:   common.GetArgByKey("from", flags, false, cmd.Help),
		to:     common.GetArgByKey("to", flags, false, cmd.Help),
		files:  common.GetArgByKey("files", flags, false, cmd.Help),
		format: common.GetArgByKey("format", flags, true, cmd.Help),
	}
	opts.staged, _ = flags.GetBool("staged")
	opts.noHealthCheck, _ = flags.GetBool("no-health-check")
	opts.copy, _ = flags.GetBool("copy")
	opts.yes, _ = flags.GetBool("yes")
	opts.noGuidelines, _ = flags.GetBool("no-guidelines")
	return opts, opts.validate()
}

func (o reviewOptions) validate() error {
	if !review.ValidFormat(o.format) {
		return fmt.Errorf("unknown format %q, expected text, markdown or json", o.format)
	}
	modes := 0
	for _, set := range []bool{o.staged, o.from != "", o.files != ""} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("--staged, --from and --files are mutually exclusive")
	}
	if o.to != "" && o.from == "" {
		return fmt.Errorf("--to needs --from")
	}
	return nil
}

// changeRequest maps the options to a change source request.
func (o reviewOptions) changeRequest() core.ChangeRequest {
	switch {
	case o.staged:
		return core.ChangeRequest{Mode: core.ModeStaged}
	case o.from != "":
		return core.ChangeRequest{Mode: core.ModeCommitRange, From: o.from, To: o.to}
	default:
		return core.ChangeRequest{Mode: core.ModeWorkingTree}
	}
}

// collectRecords builds the change records of the selected change set. root
// is the repository worktree, empty in file-pair mode.
func collectRecords(ctx context.Context, opts reviewOptions) ([]diffparse.ChangeRecord, string, error) {
	if opts.files != "" {
		records, err := handlers.ExtractFilePairHandler(opts.files)
		return records, "", err
	}

	dir := opts.dir
	if dir == "" {
		dir = "."
	}
	return handlers.ExtractChangesHandler(ctx, dir, opts.changeRequest())
}

// runReview collects the change set, checks the service and runs the
// pipeline. Fatal conditions are returned as errors; per-file failures end
// up in the report.
func runReview(ctx context.Context, conf config.Config, client provider.Client, opts reviewOptions) (review.Report, error) {
	records, root, err := collectRecords(ctx, opts)
	if err != nil {
		return review.Report{}, err
	}
	if len(records) == 0 {
		return review.Report{}, errNothingToReview
	}

	rules, err := conf.Rules()
	if err != nil {
		return review.Report{}, err
	}

	toAnalyze := 0
	for _, rec := range records {
		if rules.Decide(rec) == filter.Analyze {
			toAnalyze++
		}
	}

	if toAnalyze > 0 && !opts.noHealthCheck {
		if err := preflight(ctx, conf, client); err != nil {
			return review.Report{}, err
		}
	}

	if toAnalyze > confirmAbove && !opts.yes {
		confirm := conf.Printers
		if confirm == nil || !renders.IsTerminal(conf.InReader) {
			// Nobody can answer the prompt on a pipe or in CI.
			confirm = printers.AutoConfirm(true)
		}
		if !confirm.Confirm(fmt.Sprintf("Review %d files with %s?", toAnalyze, conf.Model)) {
			return review.Report{}, fmt.Errorf("review canceled")
		}
	}

	template := conf.PromptTemplate
	if strings.TrimSpace(template) == "" {
		template = core.DefaultPromptTemplate
	}
	if root != "" && !opts.noGuidelines {
		template = guidelines.Prepend(root, template)
	}

	analyzer := review.NewAnalyzer(client, review.AnalyzerConfig{
		PromptTemplate: template,
		Temperature:    conf.Temperature,
		MaxTokens:      conf.MaxTokens,
	})
	pipeline := review.NewPipeline(rules, analyzer)

	observer, done := progressObserver(conf.ErrWriter, records)
	rep := pipeline.Run(ctx, records, observer)
	done()
	return rep, nil
}

// progressObserver shows a spinner naming the file being analyzed when w is
// a terminal, and does nothing otherwise. done stops the spinner.
func progressObserver(w io.Writer, records []diffparse.ChangeRecord) (review.Observer, func()) {
	if !renders.IsTerminal(w) || len(records) == 0 {
		return nil, func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = fmt.Sprintf(" [1/%d] %s", len(records), records[0].Path)
	s.Start()

	observer := func(p review.Progress) {
		if p.Next == nil {
			return
		}
		s.Lock()
		s.Suffix = fmt.Sprintf(" [%d/%d] %s", p.Done+1, p.Total, p.Next.Path)
		s.Unlock()
	}
	return observer, s.Stop
}

// writeReport prints rep in the requested format. Markdown is rendered when
// out is a terminal.
func writeReport(out io.Writer, rep review.Report, format string) error {
	switch format {
	case review.FormatJSON:
		return review.WriteJSON(out, rep)
	case review.FormatText:
		_, err := fmt.Fprint(out, review.FormatPlain(rep))
		return err
	default:
		return renders.WriteMarkdown(out, review.FormatReport(rep))
	}
}

func init() {
	rootCmd.AddCommand(NewReviewCmd())
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kirillkom/docqa/internal/bootstrap"
	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/core/usecase"
)

type askOptions struct {
	file       string
	url        string
	questions  []string
	jsonOutput bool
	detailed   bool
	quiet      bool
}

func newAskCommand(root *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer questions about a local file or a URL",
		Long: `Answer one or more questions about a document. The document is read from
--file (PDF, XLSX or UTF-8 text) or downloaded from --url.

Examples:
  docqa ask --file contract.pdf -q "What is the notice period?"
  docqa ask --url https://example.com/policy.pdf -q "Is maternity covered?" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, root, opts, stdout, stderr)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "path to a local document")
	cmd.Flags().StringVar(&opts.url, "url", "", "http(s) URL of a document")
	cmd.Flags().StringArrayVarP(&opts.questions, "question", "q", nil, "question to answer (repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include confidence and rationale")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "hide the progress bar")
	cmd.MarkFlagsMutuallyExclusive("file", "url")
	cmd.MarkFlagsOneRequired("file", "url")
	return cmd
}

func runAsk(cmd *cobra.Command, root *rootOptions, opts *askOptions, stdout, stderr io.Writer) error {
	// A local file path stands in for inline text during validation.
	questions, err := usecase.ValidateRequest(opts.url, opts.file, opts.questions)
	if err != nil {
		return err
	}

	pipeline, err := bootstrap.NewPipeline(root.cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	ctx := cmd.Context()
	var text string
	if opts.file != "" {
		body, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", opts.file, err)
		}
		text, err = pipeline.Extractor.Extract(ctx, domain.SourceDocument{Name: filepath.Base(opts.file), Body: body})
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", opts.file, err)
		}
		if text == "" {
			return domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("document has no extractable text"))
		}
	} else {
		text, err = pipeline.Loader.Load(ctx, domain.DocumentSource{URL: opts.url})
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", opts.url, err)
		}
	}

	if !opts.quiet {
		bar := newProgressBar(len(questions), stderr)
		var mu sync.Mutex
		ctx = usecase.WithProgress(ctx, func(int, domain.AnswerRecord) {
			mu.Lock()
			defer mu.Unlock()
			_ = bar.Add(1)
		})
	}

	records, err := pipeline.Answerer.Run(ctx, text, questions)
	if err != nil {
		return fmt.Errorf("failed to answer questions: %w", err)
	}

	if opts.jsonOutput {
		return writeJSON(stdout, records, opts.detailed)
	}
	writeText(stdout, records, opts.detailed)
	return nil
}

func newProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Answering[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func writeJSON(w io.Writer, records []domain.AnswerRecord, detailed bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if detailed {
		return enc.Encode(map[string]any{"answers": domain.Answers(records), "results": records})
	}
	return enc.Encode(map[string]any{"answers": domain.Answers(records)})
}

func writeText(w io.Writer, records []domain.AnswerRecord, detailed bool) {
	for i, record := range records {
		fmt.Fprintf(w, "Q%d: %s\n", i+1, record.Question)
		fmt.Fprintf(w, "A%d: %s\n", i+1, record.Answer)
		if detailed {
			fmt.Fprintf(w, "    confidence: %.2f\n", record.Confidence)
			for _, evidence := range record.Rationale.SupportingEvidence {
				fmt.Fprintf(w, "    evidence: %s\n", evidence)
			}
			if refs := record.Rationale.ClauseReferences; len(refs) > 0 {
				fmt.Fprintf(w, "    references: %s\n", strings.Join(refs, ", "))
			}
		}
		fmt.Fprintln(w)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"arc/internal/config"
	"arc/internal/edit"
	"arc/internal/logging"
	"arc/internal/orchestrator"
	"arc/internal/protocol"
)

// Version is the CLI version string.
var Version = "0.3.0"

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.FgHiBlack)
)

// NewRootCommand builds the arc CLI.
func NewRootCommand() *cobra.Command {
	cfg, cfgErr := config.Load()

	var (
		rootDir string
		noColor bool
		debug   bool
	)

	root := &cobra.Command{
		Use:   "arc",
		Short: "Atomic multi-file edits and supervised agent tasks",
		Long: `arc is a reliable execution runtime for coding-assistant workflows.

It applies batches of exact string replacements atomically across files,
previews them as unified diffs, and runs task prompts in a supervised
agent subprocess with a line-delimited JSON control protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return fmt.Errorf("load config: %w", cfgErr)
			}
			if rootDir != "" {
				cfg.ProjectRoot = rootDir
			}
			if noColor {
				cfg.ColorOutput = false
				color.NoColor = true
			}
			if debug {
				cfg.Debug = true
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", "", "project root directory (default: current directory)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newEditCommand(&cfg))
	root.AddCommand(newTaskCommand(&cfg))
	root.AddCommand(newToolsCommand(&cfg))
	root.AddCommand(newVersionCommand())
	return root
}

func newEditCommand(cfg *config.RuntimeConfig) *cobra.Command {
	var (
		batchPath string
		preview   bool
		nonAtomic bool
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply a batch of exact string replacements across files",
		Long: `Apply a batch of edits read from a JSON file (or stdin with -).

The batch is a JSON array of {file_path, old_string, new_string,
expected_replacements} objects. An empty old_string creates a new file.
Conflicting edits reject the whole batch before any file is touched.
In atomic mode (default) any failure rolls every file back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := readEditBatch(batchPath)
			if err != nil {
				return err
			}

			logger := newCLILogger("EditTransaction", cfg.Debug)
			defer logger.Close()

			tx, err := edit.NewTransaction(cfg.ProjectRoot, logger)
			if err != nil {
				return err
			}

			if preview {
				return runPreview(cmd.OutOrStdout(), tx, edits, cfg.ColorOutput)
			}
			return runApply(cmd.OutOrStdout(), tx, edits, !nonAtomic)
		},
	}

	cmd.Flags().StringVarP(&batchPath, "batch", "b", "", "path to the JSON edit batch, or - for stdin (required)")
	cmd.Flags().BoolVarP(&preview, "preview", "p", false, "show unified diffs without writing any file")
	cmd.Flags().BoolVar(&nonAtomic, "non-atomic", false, "apply edits independently instead of all-or-nothing")
	_ = cmd.MarkFlagRequired("batch")
	return cmd
}

func readEditBatch(path string) ([]edit.SingleEditParams, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read edit batch: %w", err)
	}

	var edits []edit.SingleEditParams
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("parse edit batch: %w", err)
	}
	return edits, nil
}

func runPreview(w io.Writer, tx *edit.Transaction, edits []edit.SingleEditParams, colored bool) error {
	previews, err := tx.PreviewDiffs(edits, edit.NewDiffGenerator(colored))
	if err != nil {
		return err
	}
	for _, p := range previews {
		if p.IsNew {
			fmt.Fprintf(w, "%s %s\n", infoColor.Sprint("new file:"), p.FilePath)
		} else {
			fmt.Fprintf(w, "%s %s\n", infoColor.Sprint("modified:"), p.FilePath)
		}
		if p.Diff == "" {
			fmt.Fprintln(w, dimColor.Sprint("  (no changes)"))
			continue
		}
		fmt.Fprintln(w, p.Diff)
	}
	return nil
}

func runApply(w io.Writer, tx *edit.Transaction, edits []edit.SingleEditParams, atomic bool) error {
	outcome, err := tx.Apply(edits, atomic)
	if err != nil {
		return err
	}

	if outcome.Conflicts.HasConflicts {
		errorColor.Fprintf(w, "Batch rejected: %d conflict(s), no files changed\n", len(outcome.Conflicts.Conflicts))
		for _, c := range outcome.Conflicts.Conflicts {
			fmt.Fprintf(w, "  %s: %s (edits %v)\n", c.FilePath, c.Reason, c.EditIndices)
		}
		return fmt.Errorf("edit batch has conflicts")
	}

	for i, r := range outcome.EditResults {
		switch {
		case r.Success && r.IsNewFile:
			fmt.Fprintf(w, "%s created %s\n", successColor.Sprint("✓"), r.FilePath)
		case r.Success:
			fmt.Fprintf(w, "%s edited %s (%d replacement(s))\n", successColor.Sprint("✓"), r.FilePath, r.Occurrences)
		default:
			fmt.Fprintf(w, "%s edit %d %s: %s\n", errorColor.Sprint("✗"), i, r.FilePath, r.Error)
		}
	}
	fmt.Fprintf(w, "Applied %d/%d edits\n", outcome.SuccessfulEdits, outcome.TotalEdits)

	if outcome.FailedEdits > 0 {
		return fmt.Errorf("%d edit(s) failed", outcome.FailedEdits)
	}
	return nil
}

func newTaskCommand(cfg *config.RuntimeConfig) *cobra.Command {
	var (
		dir           string
		timeout       time.Duration
		maxIterations int
		allow         []string
		deny          []string
		model         string
	)

	cmd := &cobra.Command{
		Use:   "task [prompt]",
		Short: "Run a task prompt in a supervised agent subprocess",
		Long: `Spawn an agent subprocess, send it the task prompt over the control
protocol, stream its progress, and report the final outcome. The child is
terminated gracefully on timeout or interrupt, then force-killed after a
grace window if it does not exit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			logger := newCLILogger("TaskOrchestrator", cfg.Debug)
			defer logger.Close()

			out := cmd.OutOrStdout()
			orch, err := orchestrator.New(cfg.ProjectRoot,
				orchestrator.WithLogger(logger),
				orchestrator.WithProgressSink(func(p protocol.ProgressPayload) {
					if p.Tool != "" {
						infoColor.Fprintf(out, "[%d] %s\n", p.Iteration, p.Message)
					} else {
						infoColor.Fprintf(out, "... %s\n", p.Message)
					}
				}),
				orchestrator.WithDiagnosticSink(func(line string) {
					dimColor.Fprintf(out, "  | %s\n", line)
				}),
			)
			if err != nil {
				return err
			}

			summary, err := orch.Run(cmd.Context(), protocol.TaskAgentConfig{
				WorkingDir:    dir,
				Model:         model,
				AllowedTools:  allow,
				BlockedTools:  deny,
				MaxIterations: maxIterations,
				Prompt:        prompt,
				TimeoutMs:     timeout.Milliseconds(),
			})
			if err != nil {
				return err
			}

			if summary.Success {
				successColor.Fprintf(out, "✓ %s\n", summary.Summary)
			} else {
				errorColor.Fprintf(out, "✗ %s\n", summary.Summary)
			}
			fmt.Fprintf(out, "  session: %s  iterations: %d  duration: %s\n",
				summary.SessionID, summary.Iterations, summary.Duration.Round(time.Millisecond))
			for _, r := range summary.Results {
				if r.Error != "" {
					fmt.Fprintf(out, "  %s %s: %s\n", errorColor.Sprint("✗"), r.Tool, r.Error)
				} else {
					fmt.Fprintf(out, "  %s %s\n", successColor.Sprint("✓"), r.Tool)
				}
			}
			if !summary.Success {
				return fmt.Errorf("task finished with failures")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "working directory for the agent (default: project root)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", cfg.TaskTimeout, "task timeout")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", cfg.MaxIterations, "maximum tool-call iterations")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "allowlist of tool names (empty admits all)")
	cmd.Flags().StringSliceVar(&deny, "deny", nil, "blocklist of tool names (wins over allow)")
	cmd.Flags().StringVarP(&model, "model", "m", cfg.Model, "model hint passed to the agent")
	return cmd
}

func newToolsCommand(cfg *config.RuntimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the tool registry",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := buildRegistry(cfg.ProjectRoot, *cfg, logging.Nop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, def := range registry.List() {
				infoColor.Fprintln(out, def.Name)
				desc := strings.SplitN(strings.TrimSpace(def.Description), "\n", 2)[0]
				fmt.Fprintf(out, "  %s\n", desc)
			}
			return nil
		},
	}

	cmd.AddCommand(list)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the arc version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arc %s\n", Version)
		},
	}
}

// newCLILogger returns a component logger for CLI commands. Debug mode lowers
// the level so protocol traffic shows up in the debug log.
func newCLILogger(component string, debug bool) *logging.FileLogger {
	logger := logging.NewComponentLogger(component)
	if debug {
		logger.SetLevel(logging.DEBUG)
	}
	return logger
}

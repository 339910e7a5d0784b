package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/veristream/veristream/internal/model"
	"github.com/veristream/veristream/internal/session"
)

var (
	checkFile    string
	checkSpeaker string
	checkJSON    string
	checkTimeout time.Duration
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [utterance]",
	Short: "Verify one utterance or a transcript file",
	Long: `Check runs the full verification pipeline over one utterance or a
transcript file (one utterance per line), then prints every statement's
verdict.

Corrections for false claims are printed rather than spoken; the live
silence-gated delivery only applies to 'veristream serve'.

Example:
  veristream check "The Great Wall of China is visible from space."
  veristream check --file transcript.txt --json results.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFile, "file", "", "transcript file, one utterance per line")
	checkCmd.Flags().StringVar(&checkSpeaker, "speaker", "", "speaker label for all utterances")
	checkCmd.Flags().StringVar(&checkJSON, "json", "", "write results as JSON to this path")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	utterances, err := collectUtterances(args)
	if err != nil {
		return err
	}
	if len(utterances) == 0 {
		return fmt.Errorf("nothing to check: pass an utterance or --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log)

	// One-shot runs never wait out the silence gate
	cfg.Speech.TTSURL = ""

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	a.deps.Scheduler = nil

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	sess := session.New(a.deps)
	for _, u := range utterances {
		sess.HandleUtterance(ctx, u, checkSpeaker)
	}
	sess.Wait()

	entries := a.deps.Queue.Entries()
	printReport(entries)

	if checkJSON != "" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		if err := os.WriteFile(checkJSON, data, 0644); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", checkJSON)
	}

	return nil
}

func collectUtterances(args []string) ([]string, error) {
	var utterances []string
	if len(args) == 1 {
		utterances = append(utterances, args[0])
	}

	if checkFile != "" {
		f, err := os.Open(checkFile)
		if err != nil {
			return nil, fmt.Errorf("open transcript: %w", err)
		}
		defer func() { _ = f.Close() }()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				utterances = append(utterances, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read transcript: %w", err)
		}
	}

	return utterances, nil
}

func printReport(entries []model.QueueEntry) {
	if len(entries) == 0 {
		fmt.Println("No checkable claims found.")
		return
	}

	for _, e := range entries {
		fmt.Printf("statement: %s\n", e.Statement.Text)
		switch e.Status {
		case model.StatusProcessed:
			fmt.Printf("  consensus: %s (score %.2f)\n", e.Result.Consensus, e.Result.Score)
			for _, v := range e.Result.Verdicts {
				fmt.Printf("  agent %s: %s (%.2f) %s\n", v.Agent, v.Verdict, v.Confidence, v.Reasoning)
			}
			if e.Result.Correction != "" {
				fmt.Printf("  correction: %s\n", e.Result.Correction)
			}
			for _, c := range e.Result.Citations {
				fmt.Printf("  citation: %s\n", c)
			}
		case model.StatusFailed:
			fmt.Printf("  failed: %s\n", e.Error)
		default:
			fmt.Printf("  status: %s\n", e.Status)
		}
		fmt.Println()
	}
}

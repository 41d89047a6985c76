package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stitchlabs/promptdash/internal/analyzer"
)

var (
	analyzeContext     string
	analyzeProject     string
	analyzeSourceAgent string
	analyzeTargetAgent string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [prompt]",
	Short: "Analyze a single prompt and print the result as JSON",
	Long: `Analyze a prompt for quality and print the structured result.

The prompt can be passed as arguments or piped via stdin:
  promptdash analyze "Fix the login bug in auth.go"
  cat prompt.txt | promptdash analyze

Use --project to accumulate context across analyses, and --source-agent
when the prompt was produced by an agent rather than a human.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeContext, "context", "", "optional goal or context for the prompt")
	analyzeCmd.Flags().StringVar(&analyzeProject, "project", "", "project ID to accumulate context under")
	analyzeCmd.Flags().StringVar(&analyzeSourceAgent, "source-agent", "", "agent that produced the prompt")
	analyzeCmd.Flags().StringVar(&analyzeTargetAgent, "target-agent", "", "agent the prompt is intended for")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		data, err := readStdin()
		if err != nil {
			return err
		}
		prompt = strings.TrimSpace(data)
	}
	if prompt == "" {
		return fmt.Errorf("no prompt provided: pass it as an argument or pipe it via stdin")
	}

	contexts := openContextStore()

	analysisService, err := buildAnalyzer(contexts)
	if err != nil {
		return err
	}

	result, err := analysisService.Analyze(cmd.Context(), analyzer.Request{
		Prompt:      prompt,
		Context:     analyzeContext,
		ProjectID:   analyzeProject,
		SourceAgent: analyzeSourceAgent,
		TargetAgent: analyzeTargetAgent,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	// Record in the analytics store when available; the analysis result
	// still prints if recording fails.
	if store, err := openAnalytics(); err == nil {
		if _, err := store.StoreResult(result); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "Failed to record analysis: %v\n", err)
		}
		_ = store.Close()
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func readStdin() (string, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

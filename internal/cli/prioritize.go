package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/claimtriage/checkprioritizer/internal/model"
	"github.com/claimtriage/checkprioritizer/internal/segment"
)

var (
	prioritizeFile     string
	prioritizeDocument string
	prioritizeJSON     string
)

// prioritizeCmd represents the prioritize command
var prioritizeCmd = &cobra.Command{
	Use:   "prioritize [claim...]",
	Short: "Rank claims by check-worthiness from the command line",
	Long: `Prioritize runs the full retrieval + judgment pipeline over the
given claims and prints them ranked by check-worthiness.

Claims are passed as arguments, or one per line with --file. Lines that
are empty or start with # are skipped. With --document the file is split
into sentence-level candidate claims first.

Example:
  checkprioritizer prioritize "Vaccines cause autism." "The sky is blue."
  checkprioritizer prioritize --file claims.txt --json report.json
  checkprioritizer prioritize --document article.html`,
	RunE: runPrioritize,
}

func init() {
	rootCmd.AddCommand(prioritizeCmd)
	prioritizeCmd.Flags().StringVar(&prioritizeFile, "file", "", "read claims from file, one per line")
	prioritizeCmd.Flags().StringVar(&prioritizeDocument, "document", "", "split a document into candidate claims")
	prioritizeCmd.Flags().StringVar(&prioritizeJSON, "json", "", "write the full report as JSON to this path")
}

func runPrioritize(cmd *cobra.Command, args []string) error {
	texts := append([]string{}, args...)
	if prioritizeFile != "" {
		fromFile, err := readClaimsFile(prioritizeFile)
		if err != nil {
			return err
		}
		texts = append(texts, fromFile...)
	}

	claims := make([]model.Claim, 0, len(texts))
	for _, text := range texts {
		if text = strings.TrimSpace(text); text != "" {
			claims = append(claims, model.NewClaim(uuid.NewString(), text))
		}
	}

	if prioritizeDocument != "" {
		data, err := os.ReadFile(prioritizeDocument)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		fromDoc := segment.NewSegmenter().Segment(string(data))
		if len(fromDoc) == 0 {
			return fmt.Errorf("%s: no candidate claims found", prioritizeDocument)
		}
		fmt.Printf("Segmented %s into %d candidate claims\n", prioritizeDocument, len(fromDoc))
		claims = append(claims, fromDoc...)
	}

	if len(claims) == 0 {
		return fmt.Errorf("no claims given (pass them as arguments, --file, or --document)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.prioritizer.Prioritize(cmd.Context(), claims)
	if err != nil {
		return fmt.Errorf("prioritize: %w", err)
	}

	if prioritizeJSON != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(prioritizeJSON, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("✓ Wrote JSON: %s\n", prioritizeJSON)
	}

	renderReport(report)
	return nil
}

func renderReport(report *model.PriorityReport) {
	fmt.Printf("\nRanked %d claims (highest priority first):\n\n", len(report.Entries))
	for i, entry := range report.Entries {
		marker := " "
		if entry.Verdict.Failed() {
			marker = "!"
		}
		fmt.Printf("%s %2d. [%.2f] %s\n", marker, i+1, entry.Verdict.CheckWorthiness, entry.Claim.Text)
		if entry.Verdict.Rationale != "" {
			fmt.Printf("        %s\n", entry.Verdict.Rationale)
		}
	}
}

// readClaimsFile reads claims from a file, one per line, skipping blanks
// and # comments.
func readClaimsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		claims = append(claims, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resume-ranker/internal/bootstrap"
	"resume-ranker/internal/ranking"
	"resume-ranker/internal/usage"
)

// localToken identifies CLI runs in the throwaway in-memory ledger.
const localToken = "00000000000000000000000000000000"

var scoreCmd = &cobra.Command{
	Use:   "score [resume files...]",
	Short: "Score resume files against a job description and print JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScore(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("jd", "", "path to the job description text file (required)")
	scoreCmd.Flags().StringP("out", "o", "", "also write the JSON result to this file")
	scoreCmd.Flags().Bool("sort", false, "order results by overall score, best first")
	scoreCmd.Flags().Duration("timeout", 0, "per-resume AI timeout (env AI_TIMEOUT)")
	scoreCmd.Flags().Int("concurrency", 0, "resumes scored in parallel (env RANK_CONCURRENCY)")
	_ = scoreCmd.MarkFlagRequired("jd")

	_ = viper.BindPFlag("timeout", scoreCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("concurrency", scoreCmd.Flags().Lookup("concurrency"))
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	jdPath, _ := cmd.Flags().GetString("jd")
	jd, err := os.ReadFile(jdPath)
	if err != nil {
		return fmt.Errorf("read job description: %w", err)
	}

	uploads, err := readUploads(args)
	if err != nil {
		return err
	}

	client, err := bootstrap.BuildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	// The CLI is not metered; the ledger only has to admit this batch.
	svc := ranking.NewService(client, usage.NewService(len(uploads)), cfg.AITimeout, cfg.RankConcurrency)

	out, err := svc.Rank(ctx, localToken, string(jd), uploads)
	if err != nil {
		return err
	}
	if sortByScore, _ := cmd.Flags().GetBool("sort"); sortByScore {
		sortResults(out.Results)
	}

	report := cliReport{Results: out.Results, Skipped: out.Skipped}
	outPath, _ := cmd.Flags().GetString("out")
	return writeReport(cmd.OutOrStdout(), outPath, report)
}

type cliReport struct {
	Results []ranking.AnalysisResult `json:"results"`
	Skipped []ranking.SkippedFile    `json:"skipped"`
}

func readUploads(paths []string) ([]ranking.Upload, error) {
	uploads := make([]ranking.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read resume %s: %w", p, err)
		}
		uploads = append(uploads, ranking.Upload{Filename: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

// sortResults orders by overall score descending; ties keep upload order.
func sortResults(results []ranking.AnalysisResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OverallScore > results[j].OverallScore
	})
}

func writeReport(w io.Writer, outPath string, report cliReport) error {
	pretty, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	pretty = append(pretty, '\n')

	if strings.TrimSpace(outPath) != "" {
		if err := os.WriteFile(outPath, pretty, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	_, err = w.Write(pretty)
	return err
}

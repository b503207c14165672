package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"resume-ranker/internal/extract"
	"resume-ranker/internal/llm"
	"resume-ranker/internal/shared/metrics"
	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/shared/util"
	"resume-ranker/internal/usage"
)

const (
	defaultAITimeout   = 20 * time.Second
	defaultConcurrency = 4
	usageWriteTimeout  = 5 * time.Second
)

// ExtractFunc turns an uploaded file into plaintext.
type ExtractFunc func(ctx context.Context, filename string, data []byte) (string, error)

// Service scores uploaded resumes against a job description and charges the
// client's quota for every file scored.
type Service struct {
	LLM         llm.Client
	Usage       *usage.Service
	Extract     ExtractFunc
	AITimeout   time.Duration
	Concurrency int
}

// NewService builds a Service with the default extractor.
func NewService(client llm.Client, usageSvc *usage.Service, aiTimeout time.Duration, concurrency int) *Service {
	return &Service{
		LLM:         client,
		Usage:       usageSvc,
		Extract:     extract.Extract,
		AITimeout:   aiTimeout,
		Concurrency: concurrency,
	}
}

type fileOutcome struct {
	result  *AnalysisResult
	skipped *SkippedFile
}

// Rank validates the request, checks the quota, scores every valid file and
// records usage. Input and quota errors are returned before anything is scored.
func (s *Service) Rank(ctx context.Context, token, jobDescription string, uploads []Upload) (Outcome, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return Outcome{}, &InputError{Message: MsgMissingJobDescription}
	}
	if len(uploads) == 0 {
		return Outcome{}, &InputError{Message: MsgNoResumes}
	}
	valid := filterValid(uploads)
	if len(valid) == 0 {
		return Outcome{}, &InputError{Message: MsgNoValidResumes}
	}

	if _, err := s.Usage.CheckQuota(ctx, token, len(valid)); err != nil {
		if errors.Is(err, usage.ErrQuotaExceeded) {
			metrics.IncQuotaRejected()
		}
		return Outcome{}, err
	}
	metrics.IncRankRequests()

	outcomes := s.scoreAll(ctx, jobDescription, valid)

	out := Outcome{Results: []AnalysisResult{}, Skipped: []SkippedFile{}}
	for _, o := range outcomes {
		switch {
		case o.result != nil:
			out.Results = append(out.Results, *o.result)
		case o.skipped != nil:
			out.Skipped = append(out.Skipped, *o.skipped)
		}
	}
	metrics.AddResumesScored(len(out.Results))
	metrics.AddResumesSkipped(len(out.Skipped))

	// Every file sent to the AI is charged, even when the client went away
	// part way through the batch.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageWriteTimeout)
	defer cancel()
	u, err := s.Usage.Increment(writeCtx, token, len(out.Results))
	if err != nil {
		return Outcome{}, fmt.Errorf("record usage: %w", err)
	}
	if err := ctx.Err(); err != nil {
		telemetry.Info("rank.canceled", map[string]any{
			"scored":     len(out.Results),
			"not_scored": len(valid) - len(out.Results) - len(out.Skipped),
		})
		return Outcome{}, err
	}
	out.Used, out.Limit, out.Remaining = u.Used, u.Limit, u.Remaining
	return out, nil
}

// filterValid keeps uploads with a usable name and an allowed extension, in order.
func filterValid(uploads []Upload) []Upload {
	valid := make([]Upload, 0, len(uploads))
	for _, up := range uploads {
		name, err := util.SanitizeFileName(up.Filename)
		if err != nil || !extract.Allowed(name) {
			continue
		}
		valid = append(valid, Upload{Filename: name, Data: up.Data})
	}
	return valid
}

// scoreAll scores files with bounded concurrency, keeping upload order. Files
// not yet started when ctx is canceled are left empty.
func (s *Service) scoreAll(ctx context.Context, jobDescription string, files []Upload) []fileOutcome {
	outcomes := make([]fileOutcome, len(files))
	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = s.scoreOne(ctx, jobDescription, f)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Service) scoreOne(ctx context.Context, jobDescription string, f Upload) fileOutcome {
	extractFn := s.Extract
	if extractFn == nil {
		extractFn = extract.Extract
	}
	text, err := extractFn(ctx, f.Filename, f.Data)
	if err != nil {
		telemetry.Warn("rank.extract_failed", map[string]any{
			"filename": f.Filename,
			"error":    err.Error(),
		})
		return fileOutcome{skipped: &SkippedFile{Filename: f.Filename, Error: skipReason(err)}}
	}

	result := s.score(ctx, jobDescription, f.Filename, text)
	return fileOutcome{result: &result}
}

// score never fails: any AI error yields Defaults.
func (s *Service) score(ctx context.Context, jobDescription, filename, text string) AnalysisResult {
	if s.LLM == nil {
		metrics.IncAIFailures()
		return Defaults(filename)
	}
	timeout := s.AITimeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	aiCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.LLM.Complete(aiCtx, llm.BuildRankPrompt(jobDescription, filename, text))
	metrics.ObserveAIDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		metrics.IncAIFailures()
		telemetry.Warn("rank.ai_failed", map[string]any{
			"filename": filename,
			"error":    err.Error(),
		})
		return Defaults(filename)
	}
	telemetry.Debug("rank.ai_raw", map[string]any{
		"filename": filename,
		"raw":      util.TruncateRunes(raw, 200),
	})
	return Normalize(raw, filename)
}

func skipReason(err error) string {
	var extErr *extract.ExtractionError
	if errors.As(err, &extErr) && extErr.Err != nil {
		return "Could not read file: " + extErr.Err.Error()
	}
	return "Could not read file"
}

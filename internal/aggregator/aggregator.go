// Package aggregator implements the daily aggregation engine: it selects a
// user's unprocessed log entries, asks the configured LLM provider for a
// daily insight, and commits the result as a summary entry.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/chunyu/logs2weekly-go/internal/ai"
	"github.com/chunyu/logs2weekly-go/internal/logging"
	"github.com/chunyu/logs2weekly-go/internal/prompt"
	"github.com/chunyu/logs2weekly-go/internal/store"
)

// summaryTag marks entries created by aggregation runs.
const summaryTag = "DailySummary"

// Gateway is the narrow persistence surface the engine depends on.
// *store.Store satisfies it; tests substitute stubs.
type Gateway interface {
	UnprocessedSince(userID int64, since time.Time) ([]store.LogEntry, error)
	ModelConfig(userID int64) (*store.ModelConfig, error)
	InsertEntry(e *store.LogEntry) (int64, error)
	MarkProcessed(entryID, parentID int64) error
	ConfiguredUserIDs() ([]int64, error)
}

// ProviderFactory builds a provider adapter from per-user settings.
// Defaults to ai.New; tests substitute stubs.
type ProviderFactory func(ai.Settings) (ai.Provider, error)

// Result reports the outcome of one aggregation run.
// A benign no-op (nothing to aggregate, or no configured provider) is not an
// error; callers distinguish it from success by the NoOp flag and Message.
type Result struct {
	SummaryID int64
	Consumed  int
	NoOp      bool
	Message   string
}

// Aggregator runs the select-generate-commit procedure.
type Aggregator struct {
	gw          Gateway
	newProvider ProviderFactory
	log         *logging.SecureLogger

	// AI settings applied to every provider call
	timeoutSeconds int
	maxTokens      int

	now func() time.Time
}

// New creates an aggregation engine.
func New(gw Gateway, log *logging.SecureLogger, timeoutSeconds, maxTokens int) *Aggregator {
	return NewWithFactory(gw, ai.New, log, timeoutSeconds, maxTokens)
}

// NewWithFactory creates an aggregation engine with a custom provider
// factory. Tests use this to substitute stub providers.
func NewWithFactory(gw Gateway, factory ProviderFactory, log *logging.SecureLogger, timeoutSeconds, maxTokens int) *Aggregator {
	return &Aggregator{
		gw:             gw,
		newProvider:    factory,
		log:            log,
		timeoutSeconds: timeoutSeconds,
		maxTokens:      maxTokens,
		now:            time.Now,
	}
}

// RunForUser executes one aggregation run for a single user.
//
// The all-or-nothing guarantee rests on ordering: the provider call happens
// before any write, so a failed generation changes no state. A crash between
// the summary insert and the per-entry updates can leave raw entries
// unprocessed alongside an existing summary; a later run then simply creates
// another summary for the leftovers, so nothing is lost or double-consumed.
func (a *Aggregator) RunForUser(ctx context.Context, userID int64) (*Result, error) {
	since := startOfDay(a.now())

	entries, err := a.gw.UnprocessedSince(userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	if len(entries) == 0 {
		return &Result{NoOp: true, Message: "no unprocessed entries for today"}, nil
	}

	cfg, err := a.gw.ModelConfig(userID)
	if err == store.ErrNotFound {
		// A user with no configured provider is never summarized.
		return &Result{NoOp: true, Message: "no model configured for user"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model config: %w", err)
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Content
	}
	dailyPrompt := prompt.DailyInsight(lines)

	provider, err := a.newProvider(ai.Settings{
		Provider:       ai.ProviderType(cfg.Provider),
		Model:          cfg.ModelName,
		APIKey:         cfg.APIKey,
		TimeoutSeconds: a.timeoutSeconds,
		MaxTokens:      a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	text, err := provider.Generate(ctx, dailyPrompt, false)
	if err != nil {
		// No partial state: nothing has been written at this point.
		return nil, fmt.Errorf("generation produced no result: %w", err)
	}

	summary := &store.LogEntry{
		UserID:      userID,
		Content:     text,
		Type:        "summary",
		Status:      "done",
		Tags:        []string{summaryTag},
		Timestamp:   a.now(),
		IsProcessed: true,
	}

	summaryID, err := a.gw.InsertEntry(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to insert summary entry: %w", err)
	}

	marked := 0
	var markErr error
	for _, e := range entries {
		if err := a.gw.MarkProcessed(e.ID, summaryID); err != nil {
			a.log.Warn().Int64("entry_id", e.ID).Err(err).Msg("Failed to mark entry processed")
			markErr = err
			continue
		}
		marked++
	}
	if markErr != nil {
		// The summary exists; unmarked entries stay eligible for a later run.
		return &Result{SummaryID: summaryID, Consumed: marked},
			fmt.Errorf("summary %d created but %d of %d entries not marked: %w",
				summaryID, len(entries)-marked, len(entries), markErr)
	}

	return &Result{SummaryID: summaryID, Consumed: marked}, nil
}

// startOfDay returns midnight of the given time's local day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

package usage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"verifylens/internal/models"
)

// reportHistoryLimit is how many recent entries GenerateReport prints.
const reportHistoryLimit = 5

// Clock lets tests pin history timestamps.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Tracker accumulates token usage across analysis stages. One instance is
// shared by every analysis the process runs; history is never pruned.
type Tracker struct {
	mu      sync.Mutex
	summary models.UsageSummary
	history []models.UsageEntry
	clock   Clock
	log     logrus.FieldLogger
}

func NewTracker(clock Clock, log logrus.FieldLogger) *Tracker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tracker{
		history: []models.UsageEntry{},
		clock:   clock,
		log:     log,
	}
}

// TrackUsage records one stage result. It never fails the caller: a fault
// while recording is logged and the totals may end up understated.
func (t *Tracker) TrackUsage(result models.StageResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			t.log.WithField("stage", result.Stage).Errorf("Error tracking tokens: %v", r)
		}
	}()

	var tokenCount int
	var responseTime float64
	if result.Metadata != nil {
		tokenCount = result.Metadata.TokenCount
		responseTime = result.Metadata.ResponseTime
	}

	t.summary.TotalPrompts++
	t.summary.TotalTokens += tokenCount
	if t.summary.TotalPrompts > 0 {
		t.summary.AverageTokensPerPrompt = float64(t.summary.TotalTokens) / float64(t.summary.TotalPrompts)
	}

	t.history = append(t.history, models.UsageEntry{
		Timestamp:    t.clock.Now(),
		TokenCount:   tokenCount,
		ResponseTime: responseTime,
	})
}

// Stats returns a snapshot; callers may keep it without racing later updates.
func (t *Tracker) Stats() models.UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := make([]models.UsageEntry, len(t.history))
	copy(history, t.history)

	return models.UsageStats{
		Summary:         t.summary,
		DetailedHistory: history,
	}
}

// GenerateReport formats the summary and the most recent history entries.
func (t *Tracker) GenerateReport() string {
	stats := t.Stats()
	summary := stats.Summary

	var b strings.Builder
	b.WriteString("TOKEN USAGE REPORT\n")
	b.WriteString("==================\n")
	fmt.Fprintf(&b, "Total Prompts: %d\n", summary.TotalPrompts)
	fmt.Fprintf(&b, "Total Tokens: %s\n", humanize.Comma(int64(summary.TotalTokens)))
	fmt.Fprintf(&b, "Average Tokens/Prompt: %.2f\n", summary.AverageTokensPerPrompt)
	b.WriteString("\nDetailed History:\n")

	recent := stats.DetailedHistory
	if len(recent) > reportHistoryLimit {
		recent = recent[len(recent)-reportHistoryLimit:]
	}
	for _, entry := range recent {
		fmt.Fprintf(&b, "%s: %s tokens\n",
			entry.Timestamp.Format(time.RFC3339), humanize.Comma(int64(entry.TokenCount)))
	}

	return b.String()
}

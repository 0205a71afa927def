// Package report assembles the exportable integrity report from a session's
// metadata, its event log, and the scorer's output.
package report

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	eventdomain "interview-integrity/backend/internal/event/domain"
	"interview-integrity/backend/internal/scoring"
	sessiondomain "interview-integrity/backend/internal/session/domain"
)

const (
	summaryHeader = "=== Interview Summary ==="
	detailHeader  = "=== Event Logs ==="
)

// Summary is the report's header section.
type Summary struct {
	CandidateName   string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes string // minutes to two decimal places
	Counts          map[eventdomain.Type]int
	FinalScore      int
}

// Document is the assembled report: summary plus the full event detail in
// chronological order.
type Document struct {
	SessionID string
	Summary   Summary
	Events    []*eventdomain.Event
}

// Assemble builds the report document. A session that has not ended is
// reported up to now. An empty event list is valid here and yields a perfect
// score with an empty detail section; rejecting empty logs is the report
// service's policy, not the assembler's.
func Assemble(s *sessiondomain.Session, events []*eventdomain.Event, result scoring.Result, now time.Time) *Document {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	duration := end.Sub(s.StartedAt).Minutes()

	counts := make(map[eventdomain.Type]int, len(eventdomain.KnownTypes()))
	for _, t := range eventdomain.KnownTypes() {
		counts[t] = 0
	}
	for _, e := range events {
		if e.Type.Known() {
			counts[e.Type]++
		}
	}

	return &Document{
		SessionID: s.ID,
		Summary: Summary{
			CandidateName:   s.CandidateName,
			StartedAt:       s.StartedAt,
			EndedAt:         s.EndedAt,
			DurationMinutes: fmt.Sprintf("%.2f", duration),
			Counts:          counts,
			FinalScore:      result.FinalScore,
		},
		Events: events,
	}
}

// CSV renders the document as the exported text report: a labeled summary
// block of key,value lines, a blank line, then a labeled event table with a
// header row.
func (d *Document) CSV() string {
	var b strings.Builder
	b.WriteString(summaryHeader + "\n")

	w := csv.NewWriter(&b)
	records := [][]string{
		{"candidateName", d.Summary.CandidateName},
		{"startTime", d.Summary.StartedAt.Format(time.RFC3339)},
		{"endTime", formatTimePtr(d.Summary.EndedAt)},
		{"durationMinutes", d.Summary.DurationMinutes},
	}
	for _, t := range eventdomain.KnownTypes() {
		records = append(records, []string{string(t), fmt.Sprintf("%d", d.Summary.Counts[t])})
	}
	records = append(records, []string{"finalIntegrityScore", fmt.Sprintf("%d", d.Summary.FinalScore)})
	_ = w.WriteAll(records)
	w.Flush()

	b.WriteString("\n" + detailHeader + "\n")
	w = csv.NewWriter(&b)
	_ = w.Write([]string{"type", "startTime", "endTime", "meta"})
	for _, e := range d.Events {
		_ = w.Write([]string{
			string(e.Type),
			e.StartedAt.Format(time.RFC3339),
			formatTimePtr(e.EndedAt),
			string(e.Meta),
		})
	}
	w.Flush()
	return b.String()
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

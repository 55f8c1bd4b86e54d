package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

const maxLineSize = 4 * 1024 * 1024

// message is a single captured process message, one per line
type message struct {
	Event    string          `json:"event"`
	CID      string          `json:"cid"`
	File     string          `json:"file"`
	Title    string          `json:"title"`
	Parent   *string         `json:"parent"`
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
	Filename string          `json:"filename"`
}

// DecodeStats reports what a capture decode did with each line
type DecodeStats struct {
	Appended  int
	Skipped   int
	Malformed int
}

// Decode reads JSON-lines captured messages from r into store. Unknown
// kinds and malformed lines are skipped with a warning; only read errors
// are returned.
func Decode(r io.Reader, store *Store, logger log.Logger) (DecodeStats, error) {
	var stats DecodeStats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var msg message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			logger.Warn("Skipping malformed event line", "line", lineNo, "err", err)
			stats.Malformed++
			continue
		}

		ev, err := msg.toEvent()
		if err != nil {
			logger.Warn("Skipping event", "line", lineNo, "event", msg.Event, "err", err)
			stats.Skipped++
			continue
		}
		if err := store.Append(ev); err != nil {
			logger.Warn("Skipping event", "line", lineNo, "event", msg.Event, "err", err)
			stats.Skipped++
			continue
		}
		stats.Appended++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read events: %w", err)
	}
	return stats, nil
}

func (m message) toEvent() (types.RawEvent, error) {
	switch types.EventKind(m.Event) {
	case types.EventCustomMain:
		value, err := stringValue(m.Value)
		if err != nil {
			return types.RawEvent{}, err
		}
		return types.NewMainAnnotationEvent(types.MainAnnotation{
			CID:   m.CID,
			File:  m.File,
			Key:   m.Key,
			Value: value,
		}), nil
	case types.EventCustomTest:
		value, err := stringValue(m.Value)
		if err != nil {
			return types.RawEvent{}, err
		}
		return types.NewTestAnnotationEvent(types.TestAnnotation{
			CID:         m.CID,
			File:        m.File,
			Title:       m.Title,
			ParentTitle: m.parent(),
			Key:         m.Key,
			Value:       value,
		}), nil
	case types.EventScreenshot:
		return types.NewScreenshotEvent(types.ScreenshotEvent{
			CID:         m.CID,
			Title:       m.Title,
			ParentTitle: m.parent(),
			ImagePath:   m.Filename,
		}), nil
	case types.EventSuiteEnd:
		return types.NewSuiteEndEvent(types.SuiteSnapshot{
			CID:         m.CID,
			Title:       m.Title,
			ParentTitle: m.parent(),
			HasParent:   m.Parent != nil,
			File:        m.File,
		}), nil
	default:
		return types.RawEvent{}, fmt.Errorf("unknown event kind %q", m.Event)
	}
}

func (m message) parent() string {
	if m.Parent == nil {
		return ""
	}
	return *m.Parent
}

func stringValue(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("annotation value must be a string: %s", string(raw))
	}
	return s, nil
}

// DecodeRunnerStats reads the host runner's lifecycle snapshot
func DecodeRunnerStats(r io.Reader) (*types.RunnerStats, error) {
	var stats types.RunnerStats
	if err := json.NewDecoder(r).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode runner stats: %w", err)
	}
	return &stats, nil
}

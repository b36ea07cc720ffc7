package calllog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// maxRecordSize bounds a single JSONL line. Analyze responses carry
// full model output, which can run well past the bufio default.
const maxRecordSize = 4 * 1024 * 1024

// QueryFilter specifies filters for listing recorded calls.
type QueryFilter struct {
	RunID     string
	Kind      string
	Provider  string
	Model     string
	PromptKey string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
}

// List reads calls from the log file in recorded order, applying the
// filter client-side. A missing file yields an empty list. Malformed
// lines are skipped.
func List(path string, filter QueryFilter) ([]Call, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open call log: %w", err)
	}
	defer f.Close()

	var calls []Call
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var call Call
		if err := json.Unmarshal(line, &call); err != nil {
			continue
		}
		if !matches(call, filter) {
			continue
		}

		calls = append(calls, call)
		if filter.Limit > 0 && len(calls) >= filter.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read call log: %w", err)
	}
	return calls, nil
}

func matches(call Call, filter QueryFilter) bool {
	if filter.RunID != "" && call.RunID != filter.RunID {
		return false
	}
	if filter.Kind != "" && call.Kind != filter.Kind {
		return false
	}
	if filter.Provider != "" && call.Provider != filter.Provider {
		return false
	}
	if filter.Model != "" && call.Model != filter.Model {
		return false
	}
	if filter.PromptKey != "" && call.PromptKey != filter.PromptKey {
		return false
	}
	if filter.Success != nil && call.Success != *filter.Success {
		return false
	}
	if filter.After != nil && !call.Timestamp.After(*filter.After) {
		return false
	}
	if filter.Before != nil && !call.Timestamp.Before(*filter.Before) {
		return false
	}
	return true
}

// Summary aggregates recorded calls for reporting.
type Summary struct {
	Total          int            `json:"total"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	InputTokens    int            `json:"input_tokens"`
	OutputTokens   int            `json:"output_tokens"`
	TotalLatencyMs int64          `json:"total_latency_ms"`
	ByKind         map[string]int `json:"by_kind"`
	ByModel        map[string]int `json:"by_model"`
}

// Summarize aggregates calls client-side.
func Summarize(calls []Call) Summary {
	summary := Summary{
		ByKind:  make(map[string]int),
		ByModel: make(map[string]int),
	}
	for _, c := range calls {
		summary.Total++
		if c.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.InputTokens += c.InputTokens
		summary.OutputTokens += c.OutputTokens
		summary.TotalLatencyMs += int64(c.LatencyMs)
		summary.ByKind[c.Kind]++
		if c.Model != "" {
			summary.ByModel[c.Model]++
		}
	}
	return summary
}

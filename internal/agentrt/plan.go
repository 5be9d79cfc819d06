package agentrt

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// PlannedCall is one tool invocation extracted from a task prompt.
type PlannedCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ParsePlan extracts the tool-call script embedded in a task prompt: one JSON
// object per line with a "tool" key and optional "args". Prompts are written
// by an LLM-driven caller, so lines with minor JSON damage (single quotes,
// trailing commas) are run through jsonrepair before being rejected.
func ParsePlan(prompt string) []PlannedCall {
	var plan []PlannedCall
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		call, ok := parseCallLine(line)
		if !ok {
			continue
		}
		plan = append(plan, call)
	}
	return plan
}

func parseCallLine(line string) (PlannedCall, bool) {
	var call PlannedCall
	if err := json.Unmarshal([]byte(line), &call); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(line)
		if repairErr != nil {
			return PlannedCall{}, false
		}
		if err := json.Unmarshal([]byte(repaired), &call); err != nil {
			return PlannedCall{}, false
		}
	}
	if call.Tool == "" {
		return PlannedCall{}, false
	}
	return call, true
}

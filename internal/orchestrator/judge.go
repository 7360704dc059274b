package orchestrator

import (
	"context"
	"strconv"
	"strings"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// Verdict is a quality judge's assessment of a response.
type Verdict struct {
	Assessment string
	Reason     string
	Confidence float64
}

const (
	VerdictAdequate   = "ADEQUATE"
	VerdictInadequate = "INADEQUATE"
	VerdictUncertain  = "UNCERTAIN"
)

// judgeModel is the cheap local model used for quality judging.
const judgeModel = "ollama-qwen2.5-coder"

// JudgeEscalator replaces the length heuristics with a model-based quality
// check. Any failure (judge unreachable, unparseable output) means "do not
// escalate": the judge must never cause runaway escalation on its own.
type JudgeEscalator struct {
	invoke invokeFunc
}

// NewJudgeEscalator creates a JudgeEscalator running on the given invoke
// function.
func NewJudgeEscalator(invoke invokeFunc) *JudgeEscalator {
	return &JudgeEscalator{invoke: invoke}
}

// ShouldEscalate asks the judge whether the response is adequate. Only a
// confident INADEQUATE verdict triggers escalation.
func (j *JudgeEscalator) ShouldEscalate(ctx context.Context, task string, result *models.ExecutionResult, c models.Classification) bool {
	prompt := strings.Join([]string{
		"Judge whether the response below adequately answers the task.",
		"Reply with exactly three lines:",
		"ASSESSMENT: ADEQUATE or INADEQUATE or UNCERTAIN",
		"REASON: <one sentence>",
		"CONFIDENCE: <number between 0 and 1>",
		"",
		"Task: " + task,
		"Complexity: " + string(c.Complexity),
		"",
		"Response:",
		result.Text,
	}, "\n")

	judged, err := j.invoke(ctx, judgeModel, prompt)
	if err != nil {
		return false
	}

	verdict, ok := parseVerdict(judged.Text)
	if !ok {
		return false
	}
	return verdict.Assessment == VerdictInadequate && verdict.Confidence >= 0.5
}

func parseVerdict(text string) (Verdict, bool) {
	v := Verdict{Confidence: -1}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ASSESSMENT:"):
			value := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "ASSESSMENT:")))
			switch value {
			case VerdictAdequate, VerdictInadequate, VerdictUncertain:
				v.Assessment = value
			}
		case strings.HasPrefix(line, "REASON:"):
			v.Reason = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
		case strings.HasPrefix(line, "CONFIDENCE:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))
			if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 0 && f <= 1 {
				v.Confidence = f
			}
		}
	}
	if v.Assessment == "" || v.Confidence < 0 {
		return Verdict{}, false
	}
	return v, true
}

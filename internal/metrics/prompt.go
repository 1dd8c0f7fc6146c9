package metrics

import (
	"fmt"
	"strings"

	"claimcheck/internal/llm"
)

// PromptVersion participates in judge-output cache keys; bump it when
// the rubric or prompt layout changes.
const PromptVersion = "claimcheck-judge-v1"

// rubrics holds the per-metric score anchors shown to the judge.
var rubrics = map[Metric]string{
	Correctness: `Rate the factual correctness of the claim against the data evidence:
5 - Fully supported by data (strong evidence)
4 - Mostly supported (minor caveats)
3 - Unclear or weak support
2 - Likely unsupported (contradicted by data)
1 - Clearly false or unverifiable`,
	Helpfulness: `Rate how helpful or actionable this insight is for a decision maker:
5 - Highly actionable; directly informs decisions
4 - Useful; clear guidance
3 - Somewhat helpful; limited impact
2 - Slightly helpful; mostly trivia or obvious
1 - Not helpful; irrelevant or misleading`,
	Coherence: `Rate the clarity and logical flow of the claim:
5 - Crystal clear, logically airtight
4 - Clear with minor gaps
3 - Understandable but loosely structured
2 - Confusing or partially contradictory
1 - Incoherent`,
	Complexity: `Rate the depth and novelty of reasoning behind the claim:
5 - Deep multi-factor insight, non-obvious
4 - Solid analysis beyond surface level
3 - Moderate depth, one analytical step
2 - Simple restatement of a single statistic
1 - Trivial observation`,
	Verbosity: `Rate whether the claim carries an appropriate level of detail:
5 - Concise and complete
4 - Slightly over or under detailed
3 - Noticeably padded or thin
2 - Hard to use due to length problems
1 - Far too brief or far too verbose to be usable`,
}

const judgePreamble = `You are an expert data-savvy evaluator judging an insight claim about a dataset.

%s

Think step-by-step internally, but return ONLY a JSON object:
{"score": <int 1-5>, "rationale": "<one sentence>"}`

// buildMessages assembles the judging prompt for one metric. When the
// grounding step failed, the judge is told explicitly that no evidence
// is available rather than shown an empty section.
func buildMessages(m Metric, in Input) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\n", in.Claim)
	fmt.Fprintf(&b, "Dataset Summary: %s\n\n", in.Dataset.Summary)
	task := in.Dataset.TaskDescription
	if task == "" {
		task = "N/A"
	}
	fmt.Fprintf(&b, "Task Description: %s\n\n", task)
	if summary := in.Analysis.Summary(); summary != "" {
		fmt.Fprintf(&b, "Data Analysis Results:\n%s\n\n", summary)
	} else {
		b.WriteString("Data Analysis Results: none available. No grounding evidence could be gathered.\n\n")
	}
	fmt.Fprintf(&b, "Evaluate the %s of this claim.", m)

	return []llm.Message{
		llm.System(fmt.Sprintf(judgePreamble, rubrics[m])),
		llm.User(b.String()),
	}
}

// responseSchema constrains judge output for backends with structured
// output support.
func responseSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"score", "rationale"},
		"properties": map[string]any{
			"score": map[string]any{
				"type":    "integer",
				"minimum": MinScore,
				"maximum": MaxScore,
			},
			"rationale": map[string]any{
				"type": "string",
			},
		},
		"additionalProperties": false,
	}
}

package usage

// Record is the token and cost accounting unit produced by every model,
// embedding and tool call.
type Record struct {
	TokensPrompt     int64   `json:"tokens_prompt"`
	TokensCompletion int64   `json:"tokens_completion"`
	TokensTotal      int64   `json:"tokens_total"`
	CostUSD          float64 `json:"cost_usd"`
}

// Zero is the identity for Merge.
var Zero = Record{}

// Add returns the field-wise sum of r and o.
func (r Record) Add(o Record) Record {
	return Record{
		TokensPrompt:     r.TokensPrompt + o.TokensPrompt,
		TokensCompletion: r.TokensCompletion + o.TokensCompletion,
		TokensTotal:      r.TokensTotal + o.TokensTotal,
		CostUSD:          r.CostUSD + o.CostUSD,
	}
}

// IsZero reports whether r carries no usage at all.
func (r Record) IsZero() bool {
	return r == Zero
}

// Merge folds any number of records into one total.
func Merge(records ...Record) Record {
	total := Zero
	for _, rec := range records {
		total = total.Add(rec)
	}
	return total
}

// FromTokens builds a record for a call that consumed prompt and completion
// tokens at the given cost.
func FromTokens(prompt, completion int64, cost float64) Record {
	return Record{
		TokensPrompt:     prompt,
		TokensCompletion: completion,
		TokensTotal:      prompt + completion,
		CostUSD:          cost,
	}
}

// Accumulator collects the usage of the stages a request actually executed.
// It is not safe for concurrent use; each request owns its own.
type Accumulator struct {
	stages []string
	recs   []Record
}

// Add records the usage of a named stage.
func (a *Accumulator) Add(stage string, rec Record) {
	a.stages = append(a.stages, stage)
	a.recs = append(a.recs, rec)
}

// Total returns the merge of every recorded stage.
func (a *Accumulator) Total() Record {
	return Merge(a.recs...)
}

// Stages returns the stage names in the order they were recorded.
func (a *Accumulator) Stages() []string {
	out := make([]string, len(a.stages))
	copy(out, a.stages)
	return out
}

// Stage returns the usage recorded for the named stage, merged if the
// stage was recorded more than once.
func (a *Accumulator) Stage(name string) Record {
	total := Zero
	for i, s := range a.stages {
		if s == name {
			total = total.Add(a.recs[i])
		}
	}
	return total
}

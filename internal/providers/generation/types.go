package generation

import "context"

// Request carries the inputs for one generation run. The job id travels with
// the request for provider-side correlation and logging.
type Request struct {
	JobID     string
	Prompt    string
	Style     string
	Category  string
	Quality   string
	InputMIME string
	InputData []byte
}

// Result is the normalized provider output: the generated bytes plus the
// metadata the job record keeps.
type Result struct {
	Data              []byte
	MIME              string
	Model             string
	ProcessingSeconds float64
}

// Generator produces one output asset from one input asset. Implementations
// are slow and fallible; callers own the deadline.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Package result implements CommandResult: the outcome record every
// Command.Execute and CommandChain step produces (spec.md §3, §4.6).
package result

import (
	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/history"
	"github.com/mancerhq/mancer/core/mcerrors"
)

// Result is the outcome of executing a single command (or the folded
// outcome of a chain). success ⇔ exit_code == 0 unless a command
// explicitly overrides that via WithSuccessFn.
type Result struct {
	Success          bool
	ExitCode         int
	RawOutput        string
	ErrorOutput      string
	StructuredOutput any
	DataFormat       dataformat.Format
	Metadata         map[string]any
	History          *history.History
}

// New builds a Result with a one-entry-minimum history already
// satisfied by the caller (spec.md §3: "history contains at least one
// ExecutionStep describing this result").
func New(success bool, exitCode int, rawOutput, errorOutput string, structured any, format dataformat.Format, h *history.History) Result {
	return Result{
		Success:          success,
		ExitCode:         exitCode,
		RawOutput:        rawOutput,
		ErrorOutput:      errorOutput,
		StructuredOutput: structured,
		DataFormat:       format,
		Metadata:         make(map[string]any),
		History:          h,
	}
}

// IsSuccess reports the result's success flag.
func (r Result) IsSuccess() bool { return r.Success }

// GetHistory returns the result's owned execution history.
func (r Result) GetHistory() *history.History { return r.History }

// WithMetadata returns a copy of r with key=value merged into Metadata.
func (r Result) WithMetadata(key string, value any) Result {
	cp := r
	cp.Metadata = cloneMetadata(r.Metadata)
	cp.Metadata[key] = value
	return cp
}

func cloneMetadata(m map[string]any) map[string]any {
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// recordsFromStructured coerces r.StructuredOutput into canonical LIST
// records, the hub every conversion in ToFormat routes through.
func recordsFromStructured(r Result) ([]dataformat.Record, error) {
	switch r.DataFormat {
	case dataformat.LIST:
		records, ok := r.StructuredOutput.([]dataformat.Record)
		if !ok {
			return nil, mcerrors.New(mcerrors.ConversionUnavailable, "structured_output is not in LIST shape despite DataFormat==LIST")
		}
		return records, nil
	case dataformat.TABLE:
		table, ok := r.StructuredOutput.(dataformat.Table)
		if !ok {
			return nil, mcerrors.New(mcerrors.ConversionUnavailable, "structured_output is not in TABLE shape despite DataFormat==TABLE")
		}
		return dataformat.FromTable(table), nil
	case dataformat.JSON:
		raw, ok := r.StructuredOutput.(string)
		if !ok {
			return nil, mcerrors.New(mcerrors.ConversionUnavailable, "structured_output is not a string despite DataFormat==JSON")
		}
		return dataformat.FromJSON(raw)
	default:
		return nil, mcerrors.New(mcerrors.ConversionUnavailable, "no LIST-hub conversion exists for "+string(r.DataFormat))
	}
}

// ToFormat returns a new Result with StructuredOutput/DataFormat updated
// to target, leaving RawOutput and History intact other than an
// appended "convert" step on success (spec.md §4.6). On failure, it
// returns a Result with Success=false and error_message set in
// Metadata; the receiver is never mutated.
func (r Result) ToFormat(target dataformat.Format) Result {
	if r.DataFormat == target {
		return r
	}

	records, err := recordsFromStructured(r)
	if err != nil {
		return r.conversionFailure(err)
	}

	converted, err := dataformat.Convert(records, target)
	if err != nil {
		return r.conversionFailure(err)
	}

	cp := r
	cp.StructuredOutput = converted
	cp.DataFormat = target
	cp.Metadata = cloneMetadata(r.Metadata)
	cp.History = r.History.Clone()
	cp.History.Append(history.NewStep(0, "convert", string(r.DataFormat)+"->"+string(target),
		stepTime(), stepTime(), r.ExitCode, true, "", "", string(target), recordCount(converted), history.ContextSnapshot{}))
	cp.History.Steps()[cp.History.Len()-1].Op = "convert"
	return cp
}

func (r Result) conversionFailure(err error) Result {
	cp := r
	cp.Success = false
	cp.Metadata = cloneMetadata(r.Metadata)
	cp.Metadata["conversion_error"] = err.Error()
	cp.Metadata["error_message"] = err.Error()
	return cp
}

func recordCount(converted any) int {
	switch v := converted.(type) {
	case []dataformat.Record:
		return len(v)
	case dataformat.Table:
		return len(v.Rows)
	default:
		return 0
	}
}

// stepTime is a seam kept distinct from time.Now so tests covering
// ordering-only properties don't need to stub global time; it currently
// just calls through.
var stepTime = defaultStepTime

// ExtractField returns the ordered list of values at key across the
// result's LIST/TABLE records; missing keys yield nil entries rather
// than an error (spec.md §4.6).
func (r Result) ExtractField(key string) ([]any, error) {
	records, err := recordsFromStructured(r)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = rec[key]
	}
	return out, nil
}

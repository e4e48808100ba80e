package logx

// Entry is one captured log call, recorded by Recorder in place of an
// actual logrus write. Mirrors the shape of newrelic-infrastructure-agent's
// InMemoryEntriesHook, adapted to this package's own Log interface rather
// than hooking logrus itself.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]any
	Err     error
}

// Recorder is a Log double for tests: it appends every call to Entries
// instead of writing anywhere, so assertions can inspect exactly what a
// component logged without parsing JSON output.
type Recorder struct {
	entries *[]Entry
	fields  map[string]any
	err     error
}

// NewRecorder returns a fresh Recorder with an empty entry log.
func NewRecorder() *Recorder {
	return &Recorder{entries: &[]Entry{}}
}

// Entries returns every call recorded so far, across all WithFields/
// WithError derivatives of this Recorder.
func (r *Recorder) Entries() []Entry {
	return *r.entries
}

func (r *Recorder) clone() *Recorder {
	return &Recorder{entries: r.entries, fields: r.fields, err: r.err}
}

func (r *Recorder) WithFields(fields map[string]any) Log {
	merged := make(map[string]any, len(r.fields)+len(fields))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	next := r.clone()
	next.fields = merged
	return next
}

func (r *Recorder) WithError(err error) Log {
	next := r.clone()
	next.err = err
	return next
}

func (r *Recorder) record(level Level, msg string) {
	*r.entries = append(*r.entries, Entry{Level: level, Message: msg, Fields: r.fields, Err: r.err})
}

func (r *Recorder) Debug(msg string)    { r.record(LevelDebug, msg) }
func (r *Recorder) Info(msg string)     { r.record(LevelInfo, msg) }
func (r *Recorder) Warn(msg string)     { r.record(LevelWarn, msg) }
func (r *Recorder) Error(msg string)    { r.record(LevelError, msg) }
func (r *Recorder) Critical(msg string) { r.record(LevelCritical, msg) }

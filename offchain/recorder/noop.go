package recorder

// NoopRecorder is used when no history database is configured
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordMark(_ *Mark) error      { return nil }
func (n *NoopRecorder) History(_ int) ([]Mark, error) { return nil, nil }
func (n *NoopRecorder) Close() error                  { return nil }

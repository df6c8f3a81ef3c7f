package logging

import "context"

var _ Logger = (*NullLogger)(nil)

// NullLogger drops every entry. The CLI falls back to it when neither a log
// file nor --verbose is set.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (*NullLogger) Debug(context.Context, string, Fields)        {}
func (*NullLogger) Info(context.Context, string, Fields)         {}
func (*NullLogger) Warn(context.Context, string, Fields)         {}
func (*NullLogger) Error(context.Context, string, error, Fields) {}

func (l *NullLogger) WithFields(Fields) Logger { return l }

func (*NullLogger) Close() error { return nil }

// OrNull returns l, or a NullLogger when l is nil
func OrNull(l Logger) Logger {
	if l == nil {
		return NewNullLogger()
	}
	return l
}

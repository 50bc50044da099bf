package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty, providing zero overhead when metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordTokenIssued(grantType, tokenType string)                            {}
func (n *NoopMetrics) RecordGrant(grantType, result string)                                     {}
func (n *NoopMetrics) RecordIntrospection(result string)                                        {}
func (n *NoopMetrics) RecordRevocation(result string)                                           {}
func (n *NoopMetrics) RecordAuthAttempt(kind string, success bool)                              {}
func (n *NoopMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration)    {}
func (n *NoopMetrics) RecordDatabaseQueryError(operation string)                                {}

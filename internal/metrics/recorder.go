package metrics

import "time"

// Recorder is the metrics surface consumed by services and middleware.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// Grant processing
	RecordTokenIssued(grantType, tokenType string)
	RecordGrant(grantType, result string)

	// Introspection: result is one of cache_hit, active, inactive
	RecordIntrospection(result string)

	// Revocation: result is one of revoked, noop
	RecordRevocation(result string)

	// Authentication attempts: kind is client or user
	RecordAuthAttempt(kind string, success bool)

	// HTTP layer
	RecordHTTPRequest(method, path, status string, duration time.Duration)

	// Storage
	RecordDatabaseQueryError(operation string)
}

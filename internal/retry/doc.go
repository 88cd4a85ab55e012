// Package retry wraps database connection attempts with exponential backoff.
//
// The connector dials once per import batch, but that dial races server
// startups, failovers, and pool limits; retrying transient failures keeps a
// scheduled import from dying on a blip. Classification and timing are both
// pluggable:
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return dial(ctx)
//	})
//
// PostgreSQLErrorClassifier treats connection exceptions, resource
// exhaustion, and shutdown codes as transient; SQL, data, and permission
// errors fail immediately. Executors are safe for concurrent use, and
// WithOnRetry returns an independent copy rather than mutating the receiver.
package retry

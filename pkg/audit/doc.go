// Package audit records one immutable Event per gateway decision,
// allowed or denied.
//
// A Recorder stamps events (ID, timestamp, request correlation) and
// hands them to a Storage backend. Two backends ship with the package:
// SlogStorage for structured log output and PostgresStorage for durable
// rows. The AsyncWriter wraps any BatchStorage so the request path only
// queues the event; flushing happens on a background goroutine and a
// failed flush is logged rather than surfaced, because audit output must
// never alter the decision it records.
//
//	recorder, _ := audit.NewRecorder(writer,
//		audit.WithRequestIDExtractor(func(ctx context.Context) (string, bool) {
//			id := requestid.FromContext(ctx)
//			return id, id != ""
//		}),
//	)
//	_ = recorder.Record(ctx, audit.Event{
//		PrincipalID: "user-42",
//		Resource:    "reports:q3",
//		Action:      "read",
//		Outcome:     audit.OutcomeAllow,
//	})
package audit

// Package notify delivers the side effects of record transitions.
//
// Sinks post human readable messages (info, warning, error) on the business entity a
// record points at: LogSink writes them to zap, StoreSink persists them as an audit trail
// and Multi fans out to several sinks.
//
// The Bus dispatches named events such as on_edi_csv_out_output_sent_and_processed to
// subscribed handlers, so other code can react to a file being processed.
package notify

// Package batch sweeps due exchange records.
//
// The Driver selects output records waiting for an outcome (output_sent,
// output_sent_and_error) and input records waiting for a file (new,
// input_processed_error), then checks each of them on a bounded worker pool. A failure
// on one record is reported and never stops the sweep.
//
// The Scheduler runs the driver periodically with jitter and whenever Trigger is called.
// The Watcher calls Trigger when partners drop files in local exchange directories.
package batch

// Package jobs defines River Queue job types for async processing.
//
// External notification channels and periodic maintenance ride the
// queue; the approval transition itself never does. Once a delivery is
// enqueued it gets at-least-once semantics with retries, which is why
// handlers enqueue after commit instead of dialing SMTP inline.
package jobs

// QueueNotify is the queue external deliveries run on, separate from
// the default queue so a backed-up SMTP server never delays
// maintenance jobs.
const QueueNotify = "notify"

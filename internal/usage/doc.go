// Package usage implements the daily-quota ledger.
//
// Counts are kept per opaque identity key ("user:<id>" or a client IP)
// per UTC calendar day in a single SQLite file, so they survive process
// restarts and the retention sweeper. Rows from previous days read as
// zero and are reset in place by the next commit; the quota therefore
// resets exactly at the day boundary without any scheduled job.
//
// The same database holds the pro-tier flags activated by the payment
// webhook, since both are small durable facts about identities.
package usage

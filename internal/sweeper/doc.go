// Package sweeper enforces scratch file retention.
//
// Jobs normally remove their own files, but crashes and abandoned
// requests leave orphans behind. The sweeper runs on a cron schedule,
// removing files older than the configured retention age from the
// upload and output directories, and prunes long-stale usage rows while
// it is at it.
package sweeper

// Package enrich runs background catalog augmentation for shows that were
// ingested from the primary source only.
//
// A Scheduler accepts at most one job per show at a time. Jobs wait in a
// bounded queue and run on a capped worker pool; the show id stays in the
// in-progress set from Schedule until the job finishes, whatever the outcome.
// Jobs never return errors to their caller. Failures are logged and end the
// job early without retry.
package enrich

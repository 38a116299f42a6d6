// Package jobs runs background work: a bounded worker pool fed by an
// in-memory queue, a cron scheduler, and the periodic deadline sweep that
// records deadline notifications for every active user.
package jobs

// Package reconciler contains the services that keep the person aggregates
// in sync with the partitioned record log.
//
// The Service runs the poll / process / commit loop: it decodes each polled
// record, collapses tilfelle snapshots to one winner per person, applies the
// batch to the repository and acknowledges offsets only after every durable
// write succeeded. The Backfiller runs the independent lazy pass that fills
// missing display metadata from external registries.
//
// The log itself is abstracted behind RecordLog; the redisstream subpackage
// provides the Redis Streams implementation.
package reconciler

// Package batch schedules bounded-concurrency fetching of title batches.
//
// An export run enumerates titles namespace by namespace, partitions each
// listing into consecutive batches, and hands the batches to a worker
// pool. At most Concurrency batches are in flight at any moment, and
// batches are admitted in listing order. A failed batch never stops the
// pool: its error travels in the batch's Result and the remaining batches
// proceed.
//
// Example usage:
//
//	batches := batch.Partition(0, titles, 300, batch.KindPage, 0)
//	scheduler := batch.NewScheduler(fetcher, batch.DefaultConfig())
//	results, err := scheduler.Run(ctx, batches)
//	if err != nil {
//		return err
//	}
//	for res := range results {
//		// exactly one Result per batch, in completion order
//	}
//
// The scheduler:
//   - Admits batches first-in, first-out
//   - Keeps at most Concurrency batches in flight
//   - Applies a per-batch timeout
//   - Emits exactly one Result per batch, failed or not
package batch

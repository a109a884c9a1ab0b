// Package fsevents bridges the macOS FSEvents change-notification service
// into typed, awaitable event streams.
//
// FSEvents delivers change notifications in bulk, as batches of records on a
// callback invoked from a CFRunLoop thread owned by the service. This package
// owns that run loop on a dedicated locked OS thread and republishes every
// callback invocation as one Batch on a BatchStream:
//
//	stream, stop, err := fsevents.CreateEventStream(
//		[]string{"."},
//		fsevents.EventIDSinceNow,
//		time.Second,
//		fsevents.FileEvents|fsevents.NoDefer,
//	)
//	if err != nil {
//		return err
//	}
//	defer stop.Stop()
//
//	events := stream.Flatten()
//	for {
//		ev, err := events.Next(ctx)
//		if err != nil {
//			break
//		}
//		fmt.Println(ev)
//	}
//
// Directory-granular and file-granular (FileEvents) watches are supported,
// and the related file inode can be retrieved by requesting extended data
// (UseExtendedData|UseCFTypes).
//
// Backpressure: the native callback thread never blocks on the consumer.
// Batches are buffered on a bounded channel; if the consumer falls behind and
// the buffer fills up, the newest batch is dropped and an error is logged.
// The service sets MustScanSubDirs when its own buffers overflow, so a
// consumer that cares about drops should already handle rescans.
package fsevents

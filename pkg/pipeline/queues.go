package pipeline

// Queue depths for the staged pipeline.
//
// The raw queue sits between the acknowledgment path and the decoder. The
// protocol is ack-gated (at most one frame outstanding per session id), so
// a deep buffer here means enqueue-then-ack never waits on downstream
// stages. The decoded and resampled queues are small: they apply
// backpressure from a slow encoder up to the resampler, but never up to
// the acknowledgment path.
const (
	RawQueueDepth       = 256
	DecodedQueueDepth   = 8
	ResampledQueueDepth = 8
)

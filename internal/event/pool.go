package event

import (
	"sync"
)

// orderRequestPool provides sync.Pool for order requests.
// Orders are the hottest inbound path; pooling keeps the reply channel
// allocation off the request path.
//
// Usage:
//
//	req := AcquireOrderRequest()
//	req.Account, req.Quantity = id, q
//	// ... send, wait on req.Reply ...
//	ReleaseOrderRequest(req) // only after the reply was received
var orderRequestPool = sync.Pool{
	New: func() interface{} {
		return &OrderRequestEvent{Reply: make(chan OrderReply, 1)}
	},
}

// AcquireOrderRequest gets an OrderRequestEvent from the pool.
// The returned request has zero values and an empty reply channel.
func AcquireOrderRequest() *OrderRequestEvent {
	return orderRequestPool.Get().(*OrderRequestEvent)
}

// ReleaseOrderRequest returns an OrderRequestEvent to the pool.
// Never release a request whose reply has not been consumed: the sequencer
// may still write to it.
func ReleaseOrderRequest(req *OrderRequestEvent) {
	if req == nil {
		return
	}
	req.Account = ""
	req.Quantity = 0
	select {
	case <-req.Reply:
	default:
	}

	orderRequestPool.Put(req)
}

// Warmup pre-allocates order requests to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 256

	reqs := make([]*OrderRequestEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		reqs = append(reqs, AcquireOrderRequest())
	}
	for _, req := range reqs {
		ReleaseOrderRequest(req)
	}
}

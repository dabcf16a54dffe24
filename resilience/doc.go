// Package resilience holds the guards placed around outbound requests:
// a Bulkhead bounding how many batch items are in flight, and a
// RateLimiter pacing each named client.
//
//	bh := resilience.NewBulkhead("dispatch.batch", 8)
//	rl := resilience.NewRateLimiter("billing", resilience.RateLimiterConfig{Rate: 50})
//
//	err := bh.Do(ctx, func() error {
//	    if err := rl.Wait(ctx); err != nil {
//	        return err
//	    }
//	    return send(ctx)
//	})
package resilience

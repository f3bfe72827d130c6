package tasklist

import "context"

// Drive runs effects and every follow-up they produce, one at a time, and
// returns the first failure reported by an event. It stops early when ctx is
// done.
func Drive(ctx context.Context, c *Controller, effects ...Effect) error {
	queue := make([]Effect, 0, len(effects))
	for _, eff := range effects {
		if eff != nil {
			queue = append(queue, eff)
		}
	}

	var first error
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		eff := queue[0]
		queue = queue[1:]

		ev := eff(ctx)
		if err := ev.Cause(); err != nil && first == nil {
			first = err
		}
		for _, next := range c.Handle(ev) {
			if next != nil {
				queue = append(queue, next)
			}
		}
	}
	return first
}

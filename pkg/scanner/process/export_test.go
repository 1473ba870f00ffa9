package process

import "time"

func OverloadIdleDelay(d time.Duration) func() {
	idleDelayRef := idleDelay
	idleDelay = d
	return func() { idleDelay = idleDelayRef }
}

package lending

import "time"

// nowSeconds returns the current unix time in seconds, the single clock
// source used for interest accrual and oracle staleness checks.
func nowSeconds() int64 {
	return time.Now().Unix()
}

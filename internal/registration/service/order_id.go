package service

import (
	"math/rand/v2"
	"time"
)

const orderIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// newOrderID builds a registration order id: the wall-clock HHMMSS followed
// by 8 random lower-case alphanumerics.
func newOrderID(now time.Time) string {
	buf := make([]byte, 0, 14)
	buf = now.AppendFormat(buf, "150405")
	for i := 0; i < 8; i++ {
		buf = append(buf, orderIDCharset[rand.IntN(len(orderIDCharset))])
	}
	return string(buf)
}

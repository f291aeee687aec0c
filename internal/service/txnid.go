package service

import (
	"strconv"
	"sync/atomic"
	"time"
)

// TxnIDGenerator genera merchantTransactionIds "T<millis>" estrictamente
// crecientes dentro del proceso, aunque dos pedidos caigan en el mismo milisegundo.
type TxnIDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

func NewTxnIDGenerator() *TxnIDGenerator {
	return &TxnIDGenerator{now: time.Now}
}

func (g *TxnIDGenerator) Next() string {
	for {
		prev := g.last.Load()
		next := g.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if g.last.CompareAndSwap(prev, next) {
			return "T" + strconv.FormatInt(next, 10)
		}
	}
}

// Package goroutine provides helpers for launching goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// SafeGo launches fn in a goroutine. A panic is logged with its stack instead of crashing the process.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer recoverPanic(log, name)
		fn()
	}()
}

// Pool runs tasks on at most size concurrent goroutines.
type Pool struct {
	log  logger.Interface
	name string
	sem  chan struct{}
	wg   sync.WaitGroup
}

func NewPool(log logger.Interface, name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{log: log, name: name, sem: make(chan struct{}, size)}
}

// Go blocks until a slot is free, then runs fn on it.
func (p *Pool) Go(fn func()) {
	p.sem <- struct{}{}
	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		defer recoverPanic(p.log, p.name)
		fn()
	}()
}

// Wait blocks until every submitted task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func recoverPanic(log logger.Interface, name string) {
	if r := recover(); r != nil {
		log.Errorw("goroutine panicked",
			"goroutine", name,
			"panic", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)
	}
}

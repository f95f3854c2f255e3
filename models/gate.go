package models

import (
	"sync"
)

// waiter fans a single notification out to every goroutine currently
// blocked on Add, then resets so it can be reused for the next round.
type waiter struct {
	sync.Mutex
	cb []chan int
}

func (w *waiter) Add() chan int {
	w.Lock()
	ret := make(chan int)
	w.cb = append(w.cb, ret)
	w.Unlock()
	return ret
}

func (w *waiter) Truncate() {
	if w.cb != nil {
		w.cb = w.cb[:0]
	}
}

func (w *waiter) Notify() {
	w.Lock()
	for _, c := range w.cb {
		c <- 1
	}
	w.Truncate()
	w.Unlock()
}

// InterruptGate gates exclusive access to a running engine's guest state
// for an attached monitor/debugger. The run loop takes the embedded lock
// for the duration of each guest entry; a debugger that wants to pause the
// guest between entries calls Lock directly and holds it until it calls
// Unlock, at which point the run loop's next entry proceeds. StopLock,
// Start and friends exist for a future single-step protocol (pausing
// mid-entry rather than only between entries) and are not yet driven by
// the run loop.
type InterruptGate struct {
	sync.Mutex
	wg sync.WaitGroup

	start, stop waiter
}

// Start unblocks a goroutine waiting in UnlockStart and waits for it to
// reach its own stopping point.
func (g *InterruptGate) Start() {
	g.Lock()
	g.start.Notify()
	g.wg.Wait()
}

// Stop unblocks a goroutine waiting in UnlockStop or UnlockStopRelock.
func (g *InterruptGate) Stop() {
	g.stop.Notify()
	g.Unlock()
	g.wg.Wait()
}

// StopLock blocks until the gate owner calls Stop, then takes the lock
// itself. Nothing in this repository calls it; the interrupt injector
// (package interrupt) does not take the gate.
func (g *InterruptGate) StopLock() {
	g.wg.Add(1)
	<-g.stop.Add()
	g.Lock()
	g.wg.Done()
}

// UnlockStart releases the lock and blocks until Start is called.
func (g *InterruptGate) UnlockStart() {
	block := g.start.Add()
	g.Unlock()
	<-block
}

// UnlockStop releases the lock and blocks until Stop is called.
func (g *InterruptGate) UnlockStop() {
	block := g.stop.Add()
	g.Unlock()
	<-block
}

// UnlockStopRelock releases the lock, waits for two Stop notifications
// (one to proceed, one to hand control back), and reacquires the lock
// before returning. Nothing in this repository calls it; Lifecycle.Run
// only takes and releases the embedded lock around each guest entry.
func (g *InterruptGate) UnlockStopRelock() {
	start := g.stop.Add()
	stop := g.stop.Add()
	g.Unlock()
	<-start
	g.wg.Add(1)
	<-stop
	g.Lock()
	g.wg.Done()
}

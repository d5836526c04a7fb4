// Package forkjoin provides a fine-grained fork-join task scheduler built
// on randomized work stealing, for divide-and-conquer computations in the
// Cilk tradition.
//
// The scheduler supports:
// - Generic spawn/sync/call primitives typed per task signature
// - Per-worker lock-free Chase-Lev deques with LIFO local access
// - Randomized work stealing across a fixed pool of workers; a worker is
//   locked to its own OS thread only when Config.Pin is set (off by default)
// - Root dispatch from outside the pool with a blocking result
// - Steal and spawn statistics for performance analysis
//
// Task bodies must be CPU-bound and run to completion; spawns and syncs
// nest strictly LIFO within a body.
package forkjoin

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"go.uber.org/atomic"
)

// DefaultDequeSize bounds each worker's deque and frame arena.
const DefaultDequeSize = 100000

// Config holds configuration for the scheduler pool.
type Config struct {
	Workers   int  // Number of worker threads (0 = detect hardware threads)
	DequeSize int  // Per-worker deque and frame arena capacity
	Pin       bool // Pin each worker to an OS thread (and a CPU on linux)
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   0,
		DequeSize: DefaultDequeSize,
		Pin:       false,
	}
}

// ConfigFromEnv builds a Config from the process environment, loading a
// .env file first if one is present. Recognized variables are
// FORKJOIN_WORKERS, FORKJOIN_DEQUE_SIZE and FORKJOIN_PIN; anything unset
// or unparsable keeps its default.
func ConfigFromEnv() Config {
	_ = godotenv.Load()
	cfg := DefaultConfig()
	if v := os.Getenv("FORKJOIN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("FORKJOIN_DEQUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DequeSize = n
		}
	}
	if v := os.Getenv("FORKJOIN_PIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pin = b
		}
	}
	return cfg
}

// Pool is the process-wide scheduler: a fixed set of workers, a root
// mailbox, and a single start/stop lifecycle.
type Pool struct {
	config  Config
	workers []*Worker
	rootq   chan rootTask
	rootMu  sync.Mutex
	wg      sync.WaitGroup

	running  atomic.Bool
	stopping atomic.Bool
	stopped  atomic.Bool
}

// rootTask carries an externally submitted frame and the channel the
// executing worker closes once the frame is done.
type rootTask struct {
	frame *Frame
	done  chan struct{}
}

// Stats aggregates per-worker counters since Start.
type Stats struct {
	Spawns       int64 // Frames pushed onto deques
	Steals       int64 // Successful steals
	FailedSteals int64 // Steal attempts that found nothing
	Roots        int64 // Externally submitted root tasks
}

// New creates a pool with default configuration.
func New() *Pool {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a pool with custom configuration. The pool does
// not run until Start is called.
func NewWithConfig(config Config) *Pool {
	return &Pool{
		config: config,
		rootq:  make(chan rootTask, 1),
	}
}

// Start brings up the worker threads and returns once every worker is in
// its steal loop, so a following Run never races pool setup.
func (p *Pool) Start() error {
	if p.stopped.Load() {
		return fmt.Errorf("forkjoin: pool has been stopped")
	}
	if p.running.Swap(true) {
		return fmt.Errorf("forkjoin: pool already started")
	}
	if p.config.Workers < 0 {
		return fmt.Errorf("forkjoin: invalid worker count %d", p.config.Workers)
	}
	if p.config.Workers == 0 {
		p.config.Workers = runtime.NumCPU()
	}
	if p.config.DequeSize <= 0 {
		p.config.DequeSize = DefaultDequeSize
	}

	p.workers = make([]*Worker, p.config.Workers)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p)
	}

	var ready sync.WaitGroup
	for _, w := range p.workers {
		p.wg.Add(1)
		ready.Add(1)
		go w.loop(&ready)
	}
	ready.Wait()
	return nil
}

// Stop sets the stopping flag, waits for every worker to observe it and
// exit, and joins the threads. The pool cannot be restarted. Stop must
// not be called while a Run is outstanding.
func (p *Pool) Stop() {
	if !p.running.Load() || p.stopped.Swap(true) {
		return
	}
	p.stopping.Store(true)
	p.wg.Wait()
}

// Workers returns the active worker count.
func (p *Pool) Workers() int {
	return len(p.workers)
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	var s Stats
	for _, w := range p.workers {
		s.Spawns += w.spawns.Load()
		s.Steals += w.steals.Load()
		s.FailedSteals += w.failedSteals.Load()
		s.Roots += w.roots.Load()
	}
	return s
}

// submitRoot hands a frame to worker 0 and blocks the calling thread
// until the frame is done. Concurrent external submissions serialize.
func (p *Pool) submitRoot(f *Frame) {
	if !p.running.Load() || p.stopped.Load() {
		panic("forkjoin: Run on a pool that is not running")
	}
	p.rootMu.Lock()
	defer p.rootMu.Unlock()
	done := make(chan struct{})
	p.rootq <- rootTask{frame: f, done: done}
	<-done
}

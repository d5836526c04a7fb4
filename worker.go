package forkjoin

import (
	"math/rand"
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// Worker is the thread-local execution context handed to every task body.
// It owns one deque, one frame arena, and a private RNG for victim
// selection. Only the worker's own goroutine touches the arena and the
// deque's bottom end.
type Worker struct {
	id    int
	pool  *Pool
	deque *deque
	rng   *rand.Rand

	// frames is the worker's frame arena; head points one past the most
	// recent live frame. Spawn and Call bump it, their matching Sync and
	// return restore it.
	frames []Frame
	head   int

	// allstolen lets thieves skip a victim whose deque they have already
	// drained. The owner clears it on the next push.
	allstolen atomic.Bool

	spawns       atomic.Int64
	steals       atomic.Int64
	failedSteals atomic.Int64
	roots        atomic.Int64
}

func newWorker(id int, p *Pool) *Worker {
	return &Worker{
		id:     id,
		pool:   p,
		deque:  newDeque(p.config.DequeSize),
		rng:    rand.New(rand.NewSource(int64(id) + 1)),
		frames: make([]Frame, p.config.DequeSize),
	}
}

// ID returns the worker's index in [0, Workers()).
func (w *Worker) ID() int {
	return w.id
}

// Pool returns the pool this worker belongs to.
func (w *Worker) Pool() *Pool {
	return w.pool
}

// newFrame allocates the next frame from the arena.
func (w *Worker) newFrame() *Frame {
	if w.head == len(w.frames) {
		panic("forkjoin: frame stack overflow")
	}
	f := &w.frames[w.head]
	w.head++
	return f
}

// freeFrame releases the top arena frame. Spawns and syncs are strictly
// LIFO within a task body, so anything else is misnesting.
func (w *Worker) freeFrame(f *Frame) {
	w.head--
	if &w.frames[w.head] != f {
		panic("forkjoin: misnested sync")
	}
}

// push publishes a freshly initialized frame to the worker's deque.
func (w *Worker) push(f *Frame) {
	w.deque.pushBottom(f)
	w.spawns.Inc()
	if w.allstolen.Load() {
		w.allstolen.Store(false)
	}
}

// loop is the steal loop every worker runs for the pool's lifetime.
// Worker 0 additionally drains the root mailbox.
func (w *Worker) loop(ready *sync.WaitGroup) {
	defer w.pool.wg.Done()
	if w.pool.config.Pin {
		runtime.LockOSThread()
		pinThread(w.id)
	}
	ready.Done()
	for {
		if w.pool.stopping.Load() {
			return
		}
		if w.id == 0 {
			select {
			case rt := <-w.pool.rootq:
				w.runRoot(rt)
				continue
			default:
			}
		}
		if !w.stealOnce() {
			runtime.Gosched()
		}
	}
}

// stealOnce picks a uniformly random victim, attempts one steal, and runs
// the stolen task to completion. The steal path stays syscall-free.
func (w *Worker) stealOnce() bool {
	workers := w.pool.workers
	if len(workers) < 2 {
		return false
	}
	v := w.rng.Intn(len(workers) - 1)
	if v >= w.id {
		v++
	}
	victim := workers[v]
	if victim.allstolen.Load() {
		w.failedSteals.Inc()
		return false
	}
	f, ok := victim.deque.stealTop()
	if !ok {
		if victim.deque.isEmpty() {
			victim.allstolen.Store(true)
		}
		w.failedSteals.Inc()
		return false
	}
	w.steals.Inc()
	f.run(w)
	// Publish the result to the owner blocked in its sync.
	f.tag.Store(tagDone)
	return true
}

// stealUntilDone is the cooperative wait behind a sync whose child was
// stolen: keep doing useful work until the thief publishes the result.
func (w *Worker) stealUntilDone(f *Frame) {
	for f.tag.Load() != tagDone {
		if !w.stealOnce() {
			runtime.Gosched()
		}
	}
}

func (w *Worker) runRoot(rt rootTask) {
	w.roots.Inc()
	rt.frame.run(w)
	rt.frame.tag.Store(tagDone)
	close(rt.done)
}

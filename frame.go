package forkjoin

import (
	"unsafe"

	"go.uber.org/atomic"
)

// Frame synchronization tags. A frame moves through
// empty -> pushed -> (stolen -> done | done) and never backwards.
const (
	tagEmpty int32 = iota
	tagPushed
	tagStolen
	tagDone
)

// payloadWords sizes the inline payload: one word for the task function,
// one double-word slot of headroom, up to eight word-or-double arguments
// and one result.
const (
	payloadWords = 12
	payloadBytes = payloadWords * 8
)

// Frame is one call's worth of state: an erased trampoline that knows how
// to invoke the task, the inline payload it reads arguments from and
// writes the result into, and the synchronization tag thieves and owners
// coordinate through. Frames are fixed-size so they can live in a
// contiguous per-worker arena indexed by a bump pointer.
type Frame struct {
	invoke  func(w *Worker, p unsafe.Pointer)
	payload [payloadWords]uint64
	tag     atomic.Int32
	owner   int32
}

// run invokes the task with the stored arguments on the given worker and
// writes the result into the payload. It returns once the body returns.
func (f *Frame) run(w *Worker) {
	f.invoke(w, unsafe.Pointer(&f.payload))
}

// isStolen reports whether a thief has claimed this frame.
func (f *Frame) isStolen() bool {
	return f.tag.Load() == tagStolen
}

// checkPayload guards, each time a frame is built, the contract that a
// task's function, arguments and result fit the inline payload.
func checkPayload(size uintptr) {
	if size > payloadBytes {
		panic("forkjoin: task payload exceeds frame capacity")
	}
}

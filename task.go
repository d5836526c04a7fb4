package forkjoin

import "unsafe"

// Typed spawn/call/run variants for task arities 0 through 8. Each arity
// gets its own payload layout, trampoline and entry points, the way the
// reference runtimes emit one typed triple per arity. Every payload
// starts with the task function followed by the result slot, so a single
// generic Sync can recover the result without knowing the arity.
//
// Spawn pushes a child frame and returns immediately. Sync pairs the most
// recent unmatched Spawn of the current body: it runs the child inline
// when the frame is still local, or help-steals until a thief publishes
// the result. Call runs a task immediately in scheduler context. Run is
// the only entry usable from outside the pool; it blocks the caller.
//
// Frame payloads are untyped storage, invisible to the garbage
// collector. Any object a pointer argument refers to must stay reachable
// from the caller until the matching Sync (or Run) returns.

// syncPayload mirrors the fn/result prefix shared by every payload
// layout below.
type syncPayload[R any] struct {
	fn  uintptr
	res R
}

// Sync joins the most recent unmatched Spawn of the calling task body and
// returns its result. R must be the spawned task's result type; spawns
// and syncs pair strictly LIFO.
func Sync[R any](w *Worker) R {
	if w.head == 0 {
		panic("forkjoin: sync without matching spawn")
	}
	f := &w.frames[w.head-1]
	if popped, ok := w.deque.popBottom(); ok {
		// Fast path: the child never left this worker.
		if popped != f {
			panic("forkjoin: misnested sync")
		}
		f.run(w)
		f.tag.Store(tagDone)
	} else {
		// The child was stolen; work until the thief publishes it.
		w.stealUntilDone(f)
	}
	res := (*syncPayload[R])(unsafe.Pointer(&f.payload)).res
	w.freeFrame(f)
	return res
}

func (w *Worker) spawnFrame() *Frame {
	f := w.newFrame()
	f.owner = int32(w.id)
	return f
}

func (w *Worker) publish(f *Frame) {
	f.tag.Store(tagPushed)
	w.push(f)
}

func runLocal[R any](w *Worker, f *Frame) R {
	f.tag.Store(tagEmpty)
	f.run(w)
	f.tag.Store(tagDone)
	res := (*syncPayload[R])(unsafe.Pointer(&f.payload)).res
	w.freeFrame(f)
	return res
}

// Arity 0.

type payload0[R any] struct {
	fn  func(*Worker) R
	res R
}

func invoke0[R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload0[R])(p)
	pl.res = pl.fn(w)
}

func frame0[R any](f *Frame, fn func(*Worker) R) {
	checkPayload(unsafe.Sizeof(payload0[R]{}))
	f.invoke = invoke0[R]
	pl := (*payload0[R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
}

// Spawn0 pushes a child frame for fn; the child runs at the matching
// Sync, or on whichever worker steals it first.
func Spawn0[R any](w *Worker, fn func(*Worker) R) {
	f := w.spawnFrame()
	frame0(f, fn)
	w.publish(f)
}

// Call0 runs fn immediately on this worker, in scheduler context.
func Call0[R any](w *Worker, fn func(*Worker) R) R {
	f := w.spawnFrame()
	frame0(f, fn)
	return runLocal[R](w, f)
}

// Run0 dispatches fn as a root task and blocks until it completes.
func Run0[R any](p *Pool, fn func(*Worker) R) R {
	f := &Frame{owner: -1}
	frame0(f, fn)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload0[R])(unsafe.Pointer(&f.payload)).res
}

// Arity 1.

type payload1[A1, R any] struct {
	fn  func(*Worker, A1) R
	res R
	a1  A1
}

func invoke1[A1, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload1[A1, R])(p)
	pl.res = pl.fn(w, pl.a1)
}

func frame1[A1, R any](f *Frame, fn func(*Worker, A1) R, a1 A1) {
	checkPayload(unsafe.Sizeof(payload1[A1, R]{}))
	f.invoke = invoke1[A1, R]
	pl := (*payload1[A1, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
}

func Spawn1[A1, R any](w *Worker, fn func(*Worker, A1) R, a1 A1) {
	f := w.spawnFrame()
	frame1(f, fn, a1)
	w.publish(f)
}

func Call1[A1, R any](w *Worker, fn func(*Worker, A1) R, a1 A1) R {
	f := w.spawnFrame()
	frame1(f, fn, a1)
	return runLocal[R](w, f)
}

func Run1[A1, R any](p *Pool, fn func(*Worker, A1) R, a1 A1) R {
	f := &Frame{owner: -1}
	frame1(f, fn, a1)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload1[A1, R])(unsafe.Pointer(&f.payload)).res
}

// Arity 2.

type payload2[A1, A2, R any] struct {
	fn  func(*Worker, A1, A2) R
	res R
	a1  A1
	a2  A2
}

func invoke2[A1, A2, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload2[A1, A2, R])(p)
	pl.res = pl.fn(w, pl.a1, pl.a2)
}

func frame2[A1, A2, R any](f *Frame, fn func(*Worker, A1, A2) R, a1 A1, a2 A2) {
	checkPayload(unsafe.Sizeof(payload2[A1, A2, R]{}))
	f.invoke = invoke2[A1, A2, R]
	pl := (*payload2[A1, A2, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
	pl.a2 = a2
}

func Spawn2[A1, A2, R any](w *Worker, fn func(*Worker, A1, A2) R, a1 A1, a2 A2) {
	f := w.spawnFrame()
	frame2(f, fn, a1, a2)
	w.publish(f)
}

func Call2[A1, A2, R any](w *Worker, fn func(*Worker, A1, A2) R, a1 A1, a2 A2) R {
	f := w.spawnFrame()
	frame2(f, fn, a1, a2)
	return runLocal[R](w, f)
}

func Run2[A1, A2, R any](p *Pool, fn func(*Worker, A1, A2) R, a1 A1, a2 A2) R {
	f := &Frame{owner: -1}
	frame2(f, fn, a1, a2)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload2[A1, A2, R])(unsafe.Pointer(&f.payload)).res
}

// Arity 3.

type payload3[A1, A2, A3, R any] struct {
	fn  func(*Worker, A1, A2, A3) R
	res R
	a1  A1
	a2  A2
	a3  A3
}

func invoke3[A1, A2, A3, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload3[A1, A2, A3, R])(p)
	pl.res = pl.fn(w, pl.a1, pl.a2, pl.a3)
}

func frame3[A1, A2, A3, R any](f *Frame, fn func(*Worker, A1, A2, A3) R, a1 A1, a2 A2, a3 A3) {
	checkPayload(unsafe.Sizeof(payload3[A1, A2, A3, R]{}))
	f.invoke = invoke3[A1, A2, A3, R]
	pl := (*payload3[A1, A2, A3, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
	pl.a2 = a2
	pl.a3 = a3
}

func Spawn3[A1, A2, A3, R any](w *Worker, fn func(*Worker, A1, A2, A3) R, a1 A1, a2 A2, a3 A3) {
	f := w.spawnFrame()
	frame3(f, fn, a1, a2, a3)
	w.publish(f)
}

func Call3[A1, A2, A3, R any](w *Worker, fn func(*Worker, A1, A2, A3) R, a1 A1, a2 A2, a3 A3) R {
	f := w.spawnFrame()
	frame3(f, fn, a1, a2, a3)
	return runLocal[R](w, f)
}

func Run3[A1, A2, A3, R any](p *Pool, fn func(*Worker, A1, A2, A3) R, a1 A1, a2 A2, a3 A3) R {
	f := &Frame{owner: -1}
	frame3(f, fn, a1, a2, a3)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload3[A1, A2, A3, R])(unsafe.Pointer(&f.payload)).res
}

// Arity 4.

type payload4[A1, A2, A3, A4, R any] struct {
	fn  func(*Worker, A1, A2, A3, A4) R
	res R
	a1  A1
	a2  A2
	a3  A3
	a4  A4
}

func invoke4[A1, A2, A3, A4, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload4[A1, A2, A3, A4, R])(p)
	pl.res = pl.fn(w, pl.a1, pl.a2, pl.a3, pl.a4)
}

func frame4[A1, A2, A3, A4, R any](f *Frame, fn func(*Worker, A1, A2, A3, A4) R, a1 A1, a2 A2, a3 A3, a4 A4) {
	checkPayload(unsafe.Sizeof(payload4[A1, A2, A3, A4, R]{}))
	f.invoke = invoke4[A1, A2, A3, A4, R]
	pl := (*payload4[A1, A2, A3, A4, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
	pl.a2 = a2
	pl.a3 = a3
	pl.a4 = a4
}

func Spawn4[A1, A2, A3, A4, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4) R, a1 A1, a2 A2, a3 A3, a4 A4) {
	f := w.spawnFrame()
	frame4(f, fn, a1, a2, a3, a4)
	w.publish(f)
}

func Call4[A1, A2, A3, A4, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4) R, a1 A1, a2 A2, a3 A3, a4 A4) R {
	f := w.spawnFrame()
	frame4(f, fn, a1, a2, a3, a4)
	return runLocal[R](w, f)
}

func Run4[A1, A2, A3, A4, R any](p *Pool, fn func(*Worker, A1, A2, A3, A4) R, a1 A1, a2 A2, a3 A3, a4 A4) R {
	f := &Frame{owner: -1}
	frame4(f, fn, a1, a2, a3, a4)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload4[A1, A2, A3, A4, R])(unsafe.Pointer(&f.payload)).res
}

// Arity 5.

type payload5[A1, A2, A3, A4, A5, R any] struct {
	fn  func(*Worker, A1, A2, A3, A4, A5) R
	res R
	a1  A1
	a2  A2
	a3  A3
	a4  A4
	a5  A5
}

func invoke5[A1, A2, A3, A4, A5, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload5[A1, A2, A3, A4, A5, R])(p)
	pl.res = pl.fn(w, pl.a1, pl.a2, pl.a3, pl.a4, pl.a5)
}

func frame5[A1, A2, A3, A4, A5, R any](f *Frame, fn func(*Worker, A1, A2, A3, A4, A5) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5) {
	checkPayload(unsafe.Sizeof(payload5[A1, A2, A3, A4, A5, R]{}))
	f.invoke = invoke5[A1, A2, A3, A4, A5, R]
	pl := (*payload5[A1, A2, A3, A4, A5, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
	pl.a2 = a2
	pl.a3 = a3
	pl.a4 = a4
	pl.a5 = a5
}

func Spawn5[A1, A2, A3, A4, A5, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5) {
	f := w.spawnFrame()
	frame5(f, fn, a1, a2, a3, a4, a5)
	w.publish(f)
}

func Call5[A1, A2, A3, A4, A5, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5) R {
	f := w.spawnFrame()
	frame5(f, fn, a1, a2, a3, a4, a5)
	return runLocal[R](w, f)
}

func Run5[A1, A2, A3, A4, A5, R any](p *Pool, fn func(*Worker, A1, A2, A3, A4, A5) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5) R {
	f := &Frame{owner: -1}
	frame5(f, fn, a1, a2, a3, a4, a5)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload5[A1, A2, A3, A4, A5, R])(unsafe.Pointer(&f.payload)).res
}

// Arity 6.

type payload6[A1, A2, A3, A4, A5, A6, R any] struct {
	fn  func(*Worker, A1, A2, A3, A4, A5, A6) R
	res R
	a1  A1
	a2  A2
	a3  A3
	a4  A4
	a5  A5
	a6  A6
}

func invoke6[A1, A2, A3, A4, A5, A6, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload6[A1, A2, A3, A4, A5, A6, R])(p)
	pl.res = pl.fn(w, pl.a1, pl.a2, pl.a3, pl.a4, pl.a5, pl.a6)
}

func frame6[A1, A2, A3, A4, A5, A6, R any](f *Frame, fn func(*Worker, A1, A2, A3, A4, A5, A6) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6) {
	checkPayload(unsafe.Sizeof(payload6[A1, A2, A3, A4, A5, A6, R]{}))
	f.invoke = invoke6[A1, A2, A3, A4, A5, A6, R]
	pl := (*payload6[A1, A2, A3, A4, A5, A6, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
	pl.a2 = a2
	pl.a3 = a3
	pl.a4 = a4
	pl.a5 = a5
	pl.a6 = a6
}

func Spawn6[A1, A2, A3, A4, A5, A6, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5, A6) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6) {
	f := w.spawnFrame()
	frame6(f, fn, a1, a2, a3, a4, a5, a6)
	w.publish(f)
}

func Call6[A1, A2, A3, A4, A5, A6, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5, A6) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6) R {
	f := w.spawnFrame()
	frame6(f, fn, a1, a2, a3, a4, a5, a6)
	return runLocal[R](w, f)
}

func Run6[A1, A2, A3, A4, A5, A6, R any](p *Pool, fn func(*Worker, A1, A2, A3, A4, A5, A6) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6) R {
	f := &Frame{owner: -1}
	frame6(f, fn, a1, a2, a3, a4, a5, a6)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload6[A1, A2, A3, A4, A5, A6, R])(unsafe.Pointer(&f.payload)).res
}

// Arity 7.

type payload7[A1, A2, A3, A4, A5, A6, A7, R any] struct {
	fn  func(*Worker, A1, A2, A3, A4, A5, A6, A7) R
	res R
	a1  A1
	a2  A2
	a3  A3
	a4  A4
	a5  A5
	a6  A6
	a7  A7
}

func invoke7[A1, A2, A3, A4, A5, A6, A7, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload7[A1, A2, A3, A4, A5, A6, A7, R])(p)
	pl.res = pl.fn(w, pl.a1, pl.a2, pl.a3, pl.a4, pl.a5, pl.a6, pl.a7)
}

func frame7[A1, A2, A3, A4, A5, A6, A7, R any](f *Frame, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7) {
	checkPayload(unsafe.Sizeof(payload7[A1, A2, A3, A4, A5, A6, A7, R]{}))
	f.invoke = invoke7[A1, A2, A3, A4, A5, A6, A7, R]
	pl := (*payload7[A1, A2, A3, A4, A5, A6, A7, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
	pl.a2 = a2
	pl.a3 = a3
	pl.a4 = a4
	pl.a5 = a5
	pl.a6 = a6
	pl.a7 = a7
}

func Spawn7[A1, A2, A3, A4, A5, A6, A7, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7) {
	f := w.spawnFrame()
	frame7(f, fn, a1, a2, a3, a4, a5, a6, a7)
	w.publish(f)
}

func Call7[A1, A2, A3, A4, A5, A6, A7, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7) R {
	f := w.spawnFrame()
	frame7(f, fn, a1, a2, a3, a4, a5, a6, a7)
	return runLocal[R](w, f)
}

func Run7[A1, A2, A3, A4, A5, A6, A7, R any](p *Pool, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7) R {
	f := &Frame{owner: -1}
	frame7(f, fn, a1, a2, a3, a4, a5, a6, a7)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload7[A1, A2, A3, A4, A5, A6, A7, R])(unsafe.Pointer(&f.payload)).res
}

// Arity 8.

type payload8[A1, A2, A3, A4, A5, A6, A7, A8, R any] struct {
	fn  func(*Worker, A1, A2, A3, A4, A5, A6, A7, A8) R
	res R
	a1  A1
	a2  A2
	a3  A3
	a4  A4
	a5  A5
	a6  A6
	a7  A7
	a8  A8
}

func invoke8[A1, A2, A3, A4, A5, A6, A7, A8, R any](w *Worker, p unsafe.Pointer) {
	pl := (*payload8[A1, A2, A3, A4, A5, A6, A7, A8, R])(p)
	pl.res = pl.fn(w, pl.a1, pl.a2, pl.a3, pl.a4, pl.a5, pl.a6, pl.a7, pl.a8)
}

func frame8[A1, A2, A3, A4, A5, A6, A7, A8, R any](f *Frame, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7, A8) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7, a8 A8) {
	checkPayload(unsafe.Sizeof(payload8[A1, A2, A3, A4, A5, A6, A7, A8, R]{}))
	f.invoke = invoke8[A1, A2, A3, A4, A5, A6, A7, A8, R]
	pl := (*payload8[A1, A2, A3, A4, A5, A6, A7, A8, R])(unsafe.Pointer(&f.payload))
	pl.fn = fn
	pl.a1 = a1
	pl.a2 = a2
	pl.a3 = a3
	pl.a4 = a4
	pl.a5 = a5
	pl.a6 = a6
	pl.a7 = a7
	pl.a8 = a8
}

func Spawn8[A1, A2, A3, A4, A5, A6, A7, A8, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7, A8) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7, a8 A8) {
	f := w.spawnFrame()
	frame8(f, fn, a1, a2, a3, a4, a5, a6, a7, a8)
	w.publish(f)
}

func Call8[A1, A2, A3, A4, A5, A6, A7, A8, R any](w *Worker, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7, A8) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7, a8 A8) R {
	f := w.spawnFrame()
	frame8(f, fn, a1, a2, a3, a4, a5, a6, a7, a8)
	return runLocal[R](w, f)
}

func Run8[A1, A2, A3, A4, A5, A6, A7, A8, R any](p *Pool, fn func(*Worker, A1, A2, A3, A4, A5, A6, A7, A8) R, a1 A1, a2 A2, a3 A3, a4 A4, a5 A5, a6 A6, a7 A7, a8 A8) R {
	f := &Frame{owner: -1}
	frame8(f, fn, a1, a2, a3, a4, a5, a6, a7, a8)
	f.tag.Store(tagPushed)
	p.submitRoot(f)
	return (*payload8[A1, A2, A3, A4, A5, A6, A7, A8, R])(unsafe.Pointer(&f.payload)).res
}

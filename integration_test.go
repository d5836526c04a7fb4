package forkjoin

import (
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The task bodies below are the classic fork-join seeds: they live in the
// test suite because benchmarks are callers of the scheduler, not part of
// its core.

func fib(w *Worker, n int64) int64 {
	if n < 2 {
		return n
	}
	Spawn1(w, fib, n-1)
	b := Call1(w, fib, n-2)
	a := Sync[int64](w)
	return a + b
}

func seqFib(n int64) int64 {
	if n < 2 {
		return n
	}
	return seqFib(n-1) + seqFib(n-2)
}

// nqueens counts board completions with column/diagonal bitmasks.
func nqueens(w *Worker, n, cols, diag1, diag2 int64) int64 {
	mask := int64(1)<<n - 1
	if cols == mask {
		return 1
	}
	avail := ^(cols | diag1 | diag2) & mask
	spawned := 0
	for avail != 0 {
		bit := avail & -avail
		avail &^= bit
		Spawn4(w, nqueens, n, cols|bit, ((diag1|bit)<<1)&mask, (diag2|bit)>>1)
		spawned++
	}
	var total int64
	for i := 0; i < spawned; i++ {
		total += Sync[int64](w)
	}
	return total
}

const quadEpsilon = 1e-9

func quadF(x float64) float64 {
	return (x*x + 1.0) * x
}

// integrate is adaptive trapezoid quadrature over quadF: refine an
// interval until halving changes the estimate by less than quadEpsilon,
// with Richardson extrapolation on the converged leaves.
func integrate(w *Worker, x1, y1, x2, y2, area float64) float64 {
	half := (x2 - x1) / 2
	x3 := x1 + half
	y3 := quadF(x3)
	l := (y1 + y3) * half / 2
	r := (y3 + y2) * half / 2
	refined := l + r
	if math.Abs(refined-area) < quadEpsilon {
		return refined + (refined-area)/3
	}
	Spawn5(w, integrate, x1, y1, x3, y3, l)
	rr := Call5(w, integrate, x3, y3, x2, y2, r)
	ll := Sync[float64](w)
	return ll + rr
}

// splitmix64 gives each sample index its own deterministic random point,
// so the parallel reduction is exactly the sequential sum.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

func piHit(i int64) int64 {
	x := float64(splitmix64(uint64(i))>>11) / float64(1<<53)
	y := float64(splitmix64(uint64(i)^0xDEADBEEF)>>11) / float64(1<<53)
	if x*x+y*y <= 1.0 {
		return 1
	}
	return 0
}

func piMC(w *Worker, start, cnt int64) int64 {
	if cnt < 65536 {
		var hits int64
		for i := start; i < start+cnt; i++ {
			hits += piHit(i)
		}
		return hits
	}
	half := cnt / 2
	Spawn2(w, piMC, start, half)
	b := Call2(w, piMC, start+half, cnt-half)
	a := Sync[int64](w)
	return a + b
}

func withPool(t *testing.T, workers, dqsize int, body func(p *Pool)) {
	t.Helper()
	pool := NewWithConfig(Config{Workers: workers, DequeSize: dqsize})
	require.NoError(t, pool.Start())
	defer pool.Stop()
	body(pool)
}

func TestFibSingleWorker(t *testing.T) {
	withPool(t, 1, 1024, func(p *Pool) {
		require.Equal(t, int64(55), Run1(p, fib, int64(10)))
	})
}

func TestFibFourWorkers(t *testing.T) {
	withPool(t, 4, 100000, func(p *Pool) {
		require.Equal(t, int64(832040), Run1(p, fib, int64(30)))
	})
}

func TestFibLaw(t *testing.T) {
	withPool(t, 4, 100000, func(p *Pool) {
		for n := int64(0); n <= 25; n++ {
			require.Equal(t, seqFib(n), Run1(p, fib, n), "fib(%d)", n)
		}
	})
}

// TestSequentialEquivalence checks that the parallel reduction matches
// the sequential one across worker counts.
func TestSequentialEquivalence(t *testing.T) {
	want := seqFib(20)
	for _, workers := range []int{1, 2, 3, 4, 8, 16, 32, 64} {
		withPool(t, workers, 100000, func(p *Pool) {
			require.Equal(t, want, Run1(p, fib, int64(20)), "%d workers", workers)
		})
	}
}

func TestNQueens(t *testing.T) {
	withPool(t, 8, 100000, func(p *Pool) {
		require.Equal(t, int64(92), Run4(p, nqueens, int64(8), 0, 0, 0))
	})
}

func TestIntegrate(t *testing.T) {
	withPool(t, 4, 100000, func(p *Pool) {
		res := Run5(p, integrate, 0.0, quadF(0), 10.0, quadF(10), 0.0)
		assert.InDelta(t, 2550.0, res, 1e-6)
	})
}

func TestMonteCarloPi(t *testing.T) {
	const samples = 1000000
	withPool(t, 2, 100000, func(p *Pool) {
		hits := Run2(p, piMC, int64(0), int64(samples))
		assert.InDelta(t, math.Pi/4, float64(hits)/samples, 0.01)

		// Associativity: the split reduction equals the plain loop.
		var seq int64
		for i := int64(0); i < samples; i++ {
			seq += piHit(i)
		}
		assert.Equal(t, seq, hits)
	})
}

// TestSyncSlowPath forces the stolen branch: the parent parks until a
// thief has taken its child, then syncs across workers.
func TestSyncSlowPath(t *testing.T) {
	withPool(t, 2, 1024, func(p *Pool) {
		res := Run0(p, func(w *Worker) int {
			Spawn0(w, func(w *Worker) int { return 7 })
			child := &w.frames[w.head-1]
			deadline := time.Now().Add(5 * time.Second)
			for !child.isStolen() && time.Now().Before(deadline) {
				runtime.Gosched()
			}
			if !child.isStolen() {
				Sync[int](w)
				return -1
			}
			return Sync[int](w)
		})
		require.Equal(t, 7, res)
		require.GreaterOrEqual(t, p.Stats().Steals, int64(1))
	})
}

// TestArities drives spawn/call/run through the higher arities once.
func TestArities(t *testing.T) {
	sum3 := func(w *Worker, a, b, c int64) int64 { return a + b + c }
	sum6 := func(w *Worker, a, b, c, d, e, f int64) int64 { return a + b + c + d + e + f }
	sum7 := func(w *Worker, a, b, c, d, e, f, g int64) int64 { return a + b + c + d + e + f + g }
	sum8 := func(w *Worker, a, b, c, d, e, f, g, h int64) int64 {
		return a + b + c + d + e + f + g + h
	}

	withPool(t, 2, 1024, func(p *Pool) {
		require.Equal(t, int64(6), Run3(p, sum3, int64(1), int64(2), int64(3)))
		require.Equal(t, int64(21), Run6(p, sum6, int64(1), int64(2), int64(3), int64(4), int64(5), int64(6)))
		require.Equal(t, int64(28), Run7(p, sum7, int64(1), int64(2), int64(3), int64(4), int64(5), int64(6), int64(7)))
		require.Equal(t, int64(36), Run8(p, sum8, int64(1), int64(2), int64(3), int64(4), int64(5), int64(6), int64(7), int64(8)))

		mixed := Run0(p, func(w *Worker) int64 {
			Spawn3(w, sum3, int64(1), int64(2), int64(3))
			Spawn8(w, sum8, int64(1), int64(2), int64(3), int64(4), int64(5), int64(6), int64(7), int64(8))
			total := Sync[int64](w) // pairs the Spawn8
			total += Sync[int64](w) // pairs the Spawn3
			total += Call6(w, sum6, int64(1), int64(2), int64(3), int64(4), int64(5), int64(6))
			return total
		})
		require.Equal(t, int64(63), mixed)
	})
}

// TestMixedArgumentTypes marshals scalars and a pointer through a frame.
func TestMixedArgumentTypes(t *testing.T) {
	withPool(t, 1, 1024, func(p *Pool) {
		buf := make([]int64, 4)
		res := Run3(p, func(w *Worker, out *[]int64, scale float64, n int64) float64 {
			for i := range *out {
				(*out)[i] = n * int64(i)
			}
			return scale * float64(n)
		}, &buf, 2.5, int64(10))

		require.Equal(t, 25.0, res)
		require.Equal(t, []int64{0, 10, 20, 30}, buf)
	})
}

func TestPayloadTooLargePanics(t *testing.T) {
	require.PanicsWithValue(t, "forkjoin: task payload exceeds frame capacity", func() {
		checkPayload(payloadBytes + 1)
	})
}

func TestFrameStackOverflowPanics(t *testing.T) {
	pool := NewWithConfig(Config{Workers: 1, DequeSize: 4})
	w := newWorker(0, pool)

	require.PanicsWithValue(t, "forkjoin: frame stack overflow", func() {
		for {
			w.newFrame()
		}
	})
}

func TestSyncWithoutSpawnPanics(t *testing.T) {
	pool := NewWithConfig(Config{Workers: 1, DequeSize: 4})
	w := newWorker(0, pool)

	require.PanicsWithValue(t, "forkjoin: sync without matching spawn", func() {
		Sync[int](w)
	})
}

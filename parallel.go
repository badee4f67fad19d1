package halftone

import (
	"runtime"
	"sync"
)

// parallelRange splits [0, n) into runtime.GOMAXPROCS(0) contiguous chunks
// and runs work on each chunk concurrently, waiting for all of them to
// finish before returning. It degenerates to a single synchronous call when
// n is small or only one CPU is available, mirroring the worker-splitting
// shape used for per-pixel image operations elsewhere in this package's
// lineage.
func parallelRange(n int, work func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		work(0, n)
		return
	}

	chunk := n / workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		lo := i * chunk
		hi := lo + chunk
		if i == workers-1 {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			work(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

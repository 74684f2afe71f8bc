package utils

import (
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

// ParallelForEachRow calls f once for every row in [0, height). Rows are split into
// ParallelFactor contiguous blocks, each handled by its own goroutine. f must only write state
// owned by its row. A panic in f stops that block and is re-raised in the caller once every
// block has finished.
func ParallelForEachRow(height int, f func(row int)) {
	if height <= 0 {
		return
	}
	numGroups := ParallelFactor
	if numGroups > height {
		numGroups = height
	}
	groupSize := height / numGroups
	extra := height % numGroups

	var (
		wait       sync.WaitGroup
		panicMu    sync.Mutex
		panicked   bool
		panicValue interface{}
	)
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		from := groupSize * groupNum
		to := from + groupSize
		if groupNum == numGroups-1 {
			to += extra
		}
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if !panicked {
						panicked, panicValue = true, r
					}
					panicMu.Unlock()
				}
			}()
			for row := from; row < to; row++ {
				f(row)
			}
		})
	}
	wait.Wait()
	if panicked {
		panic(panicValue)
	}
}

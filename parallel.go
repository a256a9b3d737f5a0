package generaxcore

import (
	"runtime"
)

//ParallelContext partitions an index range across workers and reduces
//their partial sums. Workers must not mutate shared state. A zero
//value runs one worker per available CPU.
type ParallelContext struct {
	Workers int
}

//GetBegin will return the begin of the range assigned to a worker
func (p ParallelContext) GetBegin(worker, n int) int {
	return worker * n / p.workerCount(n)
}

//GetEnd will return the end of the range assigned to a worker
func (p ParallelContext) GetEnd(worker, n int) int {
	return (worker + 1) * n / p.workerCount(n)
}

//SumUint will apply f to every worker's subrange of [0, n) in its own
//goroutine and return the sum of the partial results
func (p ParallelContext) SumUint(n int, f func(begin, end int) uint64) uint64 {
	workers := p.workerCount(n)
	if workers == 0 {
		return 0
	}
	partial := make(chan uint64, workers)
	for w := 0; w < workers; w++ {
		go func(begin, end int) {
			partial <- f(begin, end)
		}(p.GetBegin(w, n), p.GetEnd(w, n))
	}
	var sum uint64
	for w := 0; w < workers; w++ {
		sum += <-partial
	}
	return sum
}

func (p ParallelContext) workerCount(n int) int {
	workers := p.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	return workers
}

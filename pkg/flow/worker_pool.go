package flow

import (
	"context"
	"runtime"
	"sync"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// TraceTask is one seed to trace
type TraceTask struct {
	TaskID int // Seed index, for ordering results
	Seed   core.Vec3
}

// TraceResult is the outcome of one TraceTask
type TraceResult struct {
	TaskID     int
	Seed       core.Vec3
	Trajectory streamline.Trajectory
	Stats      streamline.Stats
	Err        error
}

// WorkerPool traces seeds in parallel with a shared tracer
type WorkerPool struct {
	taskQueue   chan TraceTask
	resultQueue chan TraceResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker runs tasks from the pool's queue
type Worker struct {
	ID          int
	tracer      *streamline.Tracer
	taskQueue   chan TraceTask
	resultQueue chan TraceResult
}

// NewWorkerPool creates a pool whose queues can hold capacity tasks without
// blocking. numWorkers <= 0 means one worker per CPU; there are never more
// workers than tasks the queue can hold.
func NewWorkerPool(tracer *streamline.Tracer, numWorkers, capacity int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(1, min(numWorkers, capacity))

	wp := &WorkerPool{
		taskQueue:   make(chan TraceTask, capacity),
		resultQueue: make(chan TraceResult, capacity),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			tracer:      tracer,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start launches all workers. Tasks are skipped with ctx.Err() once ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop closes the task queue, waits for the workers and closes results
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask queues a task
func (wp *WorkerPool) SubmitTask(task TraceTask) {
	wp.taskQueue <- task
}

// GetResult blocks for the next completed task
func (wp *WorkerPool) GetResult() (TraceResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		result := TraceResult{TaskID: task.TaskID, Seed: task.Seed}
		if err := ctx.Err(); err != nil {
			result.Err = err
		} else {
			result.Trajectory, result.Stats, result.Err = w.tracer.Trace(task.Seed)
		}
		w.resultQueue <- result
	}
}

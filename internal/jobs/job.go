package jobs

import (
	"context"
	"fmt"
)

// Kind selects the execution substrate of a job.
type Kind int

const (
	// KindFuture runs on the goroutine scheduler shared with request handling.
	// Its function must not block for long outside of context-aware waits.
	KindFuture Kind = iota + 1
	// KindIOBlocking runs on a pool of workers that may block on sleep, disk or network.
	KindIOBlocking
	// KindCPUBound runs on a pool sized to the number of cores.
	KindCPUBound

	kindCount = int(KindCPUBound) + 1
)

func (k Kind) String() string {
	switch k {
	case KindFuture:
		return "future"
	case KindIOBlocking:
		return "io_blocking"
	case KindCPUBound:
		return "cpu_bound"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	return k >= KindFuture && k <= KindCPUBound
}

// Job is a unit of background work tagged with its substrate.
type Job struct {
	Kind Kind
	Name string
	run  func(ctx context.Context)
}

// Future builds a job for the shared scheduler. fn should return promptly
// once ctx is done.
func Future(name string, fn func(ctx context.Context)) Job {
	return Job{Kind: KindFuture, Name: name, run: fn}
}

// IOBlocking builds a job that may block.
func IOBlocking(name string, fn func()) Job {
	return Job{Kind: KindIOBlocking, Name: name, run: func(context.Context) { fn() }}
}

// CPUBound builds a compute-heavy job.
func CPUBound(name string, fn func()) Job {
	return Job{Kind: KindCPUBound, Name: name, run: func(context.Context) { fn() }}
}

// ResponseMeta is a snapshot of a finished response, captured before any
// response-triggered job is dispatched.
type ResponseMeta struct {
	Status    int
	Method    string
	Path      string
	Route     string
	RequestID string
}

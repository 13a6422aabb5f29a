package context

import (
	"context"
	"sync"

	"github.com/timandy/routine"
)

const bucketsSize = 128

type (
	contextBucket struct {
		lock sync.RWMutex
		data map[int64]context.Context
	}
	contextBuckets struct {
		buckets [bucketsSize]*contextBucket
	}
)

var goroutineContext contextBuckets

func init() {
	for i := range goroutineContext.buckets {
		goroutineContext.buckets[i] = &contextBucket{
			data: make(map[int64]context.Context),
		}
	}
}

// GetContext returns the context bound to the current goroutine, or nil.
func GetContext() context.Context {
	goid := routine.Goid()
	bucket := goroutineContext.buckets[goid%bucketsSize]
	bucket.lock.RLock()
	ctx := bucket.data[goid]
	bucket.lock.RUnlock()
	return ctx
}

// SetContext binds ctx to the current goroutine.
func SetContext(ctx context.Context) {
	goid := routine.Goid()
	bucket := goroutineContext.buckets[goid%bucketsSize]
	bucket.lock.Lock()
	defer bucket.lock.Unlock()
	bucket.data[goid] = ctx
}

// ClearContext removes the binding for the current goroutine.
func ClearContext() {
	goid := routine.Goid()
	bucket := goroutineContext.buckets[goid%bucketsSize]
	bucket.lock.Lock()
	defer bucket.lock.Unlock()
	delete(bucket.data, goid)
}

// RunWithContext 绑定 ctx 后执行 fn，结束时清理绑定
func RunWithContext(ctx context.Context, fn func(ctx context.Context)) {
	SetContext(ctx)
	defer ClearContext()
	fn(ctx)
}

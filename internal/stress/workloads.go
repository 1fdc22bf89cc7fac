package stress

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"viper/internal/box"
	"viper/internal/collections"
	"viper/internal/heap"
	"viper/internal/object"
	"viper/internal/rtctx"
	"viper/internal/rtstr"
)

const stressClass = 0x5354

// runRefcount retains and releases one shared object from every worker.
// The finalizer must run exactly once, after the last release.
func runRefcount(ctx context.Context, r *runner) error {
	obj := object.New(stressClass, 16)
	var finalized atomic.Int32
	object.SetFinalizer(obj, func(heap.Object) { finalized.Add(1) })

	err := r.fanOut(ctx, WorkloadRefcount, r.opts.Workers, func(ctx context.Context, _ int) error {
		for i := 0; i < r.opts.Iterations; i++ {
			object.RetainMaybe(obj)
			object.Release(obj)
			r.ops.Add(2)
		}
		return nil
	})
	if err != nil {
		object.Release(obj)
		return err
	}
	return settleShared(obj, &finalized)
}

// settleShared drops the workload's own reference to obj and checks that
// exactly that release finalized it. The reference is dropped on every
// path.
func settleShared(obj heap.Object, finalized *atomic.Int32) error {
	rc := heap.RefCount(obj)
	early := finalized.Load()
	if !heap.IsFreed(obj) {
		object.Release(obj)
	}
	switch {
	case rc != 1:
		return fmt.Errorf("refcount drifted to %d", rc)
	case early != 0:
		return fmt.Errorf("finalizer ran while the object was alive")
	}
	if n := finalized.Load(); n != 1 {
		return fmt.Errorf("finalizer ran %d times, want 1", n)
	}
	return nil
}

// runStrings shares one string across workers, each building fresh
// concatenations from retained copies.
func runStrings(ctx context.Context, r *runner) error {
	before := heap.Stats()
	shared := rtstr.FromString("stress")
	suffix := rtstr.FromLiteral("!")
	want := rtstr.Len(shared) + 1

	err := r.fanOut(ctx, WorkloadStrings, r.opts.Workers, func(ctx context.Context, _ int) error {
		for i := 0; i < r.opts.Iterations; i++ {
			c := rtstr.Concat(rtstr.Retain(shared), suffix)
			if rtstr.Len(c) != want {
				return fmt.Errorf("concat produced %q", rtstr.Text(c))
			}
			rtstr.Release(c)
			r.ops.Add(1)
		}
		return nil
	})
	if rc := rtstr.RefCount(shared); err == nil && rc != 1 {
		err = fmt.Errorf("shared string refcount drifted to %d", rc)
	}
	rtstr.Release(shared)
	if err != nil {
		return err
	}
	return leakCheck(before)
}

// runContexts gives each goroutine its own context and has it bind,
// bump a module counter and unbind on every iteration.
func runContexts(ctx context.Context, r *runner) error {
	ctxs := make([]*rtctx.Context, r.opts.Contexts)
	for i := range ctxs {
		ctxs[i] = rtctx.New()
	}
	defer func() {
		for _, c := range ctxs {
			_ = rtctx.Cleanup(c)
		}
	}()

	err := r.fanOut(ctx, WorkloadContexts, len(ctxs), func(ctx context.Context, worker int) error {
		c := ctxs[worker]
		for i := 0; i < r.opts.Iterations; i++ {
			rtctx.SetCurrent(c)
			*rtctx.AddrI64("counter") += int64(worker + 1)
			rtctx.SetCurrent(nil)
			r.ops.Add(1)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i, c := range ctxs {
		want := int64(r.opts.Iterations) * int64(i+1)
		if got := *c.AddrI64("counter"); got != want {
			return fmt.Errorf("context %d counter = %d, want %d", i, got, want)
		}
		if c.BindCount() != 0 {
			return fmt.Errorf("context %d still bound %d times", i, c.BindCount())
		}
	}
	return nil
}

// runCollections churns per-worker containers holding boxed values and
// checks that everything they allocated is freed.
func runCollections(ctx context.Context, r *runner) error {
	before := heap.Stats()
	err := r.fanOut(ctx, WorkloadCollections, r.opts.Workers, func(ctx context.Context, worker int) error {
		m := collections.NewMap()
		lru := collections.NewLRU(16)
		q := collections.NewPQueue(collections.MinFirst)
		seq := collections.NewSeqOf(heap.ElemBox)
		defer func() {
			heap.Release(m)
			heap.Release(lru)
			heap.Release(q)
			heap.Release(seq)
		}()
		for i := 0; i < r.opts.Iterations; i++ {
			key := rtstr.FromString("k" + strconv.Itoa(i%64))
			v := box.I64(int64(i))
			m.Set(key, v)
			lru.Put(key, v)
			q.Push(int64(i%7), v)
			seq.Push(v)
			heap.Release(v)
			rtstr.Release(key)
			if q.Len() > 32 {
				object.Release(q.Pop())
			}
			if seq.Len() > 32 {
				seq.Clear()
			}
			r.ops.Add(4)
		}
		if m.Len() != min(64, r.opts.Iterations) || lru.Len() > 16 {
			return fmt.Errorf("worker %d: map=%d lru=%d", worker, m.Len(), lru.Len())
		}
		return nil
	})
	if err != nil {
		return err
	}
	return leakCheck(before)
}

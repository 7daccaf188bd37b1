package promise

// All resolves with the ordered results once every input resolves, or
// rejects with the first rejection; settlements after that are ignored.
// An empty input resolves with an empty slice. All completion bookkeeping
// runs on the loop goroutine.
func All(loop *Loop, ps ...*Promise) *Promise {
	out := newPromise(loop)
	results := make([]any, len(ps))
	if len(ps) == 0 {
		out.settle(StateResolved, results, nil)
		return out
	}
	remaining := len(ps)
	for i, in := range ps {
		i := i
		in.subscribe(func(st State, v any, err error) {
			if st == StateRejected {
				out.settle(StateRejected, nil, err)
				return
			}
			results[i] = v
			remaining--
			if remaining == 0 {
				out.settle(StateResolved, results, nil)
			}
		})
	}
	return out
}

// Race settles like whichever input settles first. With no inputs the
// promise stays pending forever.
func Race(loop *Loop, ps ...*Promise) *Promise {
	out := newPromise(loop)
	for _, in := range ps {
		in.subscribe(func(st State, v any, err error) {
			if st == StateRejected {
				out.settle(StateRejected, nil, err)
				return
			}
			out.settle(StateResolved, v, nil)
		})
	}
	return out
}

package workflows

// ProgressFunc is called after each successful item with the number of
// items completed so far, the batch size and the item's result. It may be
// called from several goroutines at once.
type ProgressFunc[TResult any] func(completed, total int, result TResult)

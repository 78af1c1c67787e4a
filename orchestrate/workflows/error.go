package workflows

import (
	"fmt"
	"sort"
	"strings"
)

// TaskError records the failure of one item, keyed by its position in the
// input slice.
type TaskError[TItem any] struct {
	Index int
	Item  TItem
	Err   error
}

func (e TaskError[TItem]) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e TaskError[TItem]) Unwrap() error { return e.Err }

// ParallelResult holds dense, input-ordered successes and failures.
// len(Results)+len(Errors) is the number of items that ran.
type ParallelResult[TItem, TResult any] struct {
	Results []TResult
	Errors  []TaskError[TItem]
}

// ParallelError is returned when failures meet the return criteria: any
// failure under fail-fast, or every item failing otherwise.
//
// Messages summarize by distinct error text:
//
//	parallel execution failed: item 5: connection refused
//	parallel execution failed: 15 items failed with 2 error types: 'connection refused' (12 items), 'timeout' (3 items)
type ParallelError[TItem any] struct {
	Errors []TaskError[TItem]
}

func (e *ParallelError[TItem]) Error() string {
	switch len(e.Errors) {
	case 0:
		return "parallel execution failed"
	case 1:
		return "parallel execution failed: " + e.Errors[0].Error()
	}

	counts := make(map[string]int)
	for _, taskErr := range e.Errors {
		counts[taskErr.Err.Error()]++
	}

	msgs := make([]string, 0, len(counts))
	for msg := range counts {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		if counts[msgs[i]] != counts[msgs[j]] {
			return counts[msgs[i]] > counts[msgs[j]]
		}
		return msgs[i] < msgs[j]
	})

	parts := make([]string, len(msgs))
	for i, msg := range msgs {
		unit := "items"
		if counts[msg] == 1 {
			unit = "item"
		}
		parts[i] = fmt.Sprintf("'%s' (%d %s)", msg, counts[msg], unit)
	}

	return fmt.Sprintf(
		"parallel execution failed: %d items failed with %d error types: %s",
		len(e.Errors), len(counts), strings.Join(parts, ", "),
	)
}

// Unwrap exposes every task error to errors.Is and errors.As.
func (e *ParallelError[TItem]) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, taskErr := range e.Errors {
		errs[i] = taskErr.Err
	}
	return errs
}

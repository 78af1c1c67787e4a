// Package config holds the initialization-time settings for orchestration
// primitives: state graphs and parallel fan-out.
//
// Configs exist only while building runtime objects. Observers are named by
// string so configs can be loaded from JSON or YAML and resolved through the
// observability registry.
//
// Every config has a DefaultXConfig constructor and a Merge method. Merge
// copies non-zero source values: non-empty strings, positive numbers and
// non-nil pointers. Booleans whose default is true are stored as *bool in a
// field with a "Nil" suffix and read through an accessor of the plain name:
//
//	type ParallelConfig struct {
//	    FailFastNil *bool `json:"fail_fast"`
//	}
//
//	func (c *ParallelConfig) FailFast() bool
//
// A partial file such as {"max_workers": 4} then leaves FailFast at its
// default instead of forcing it to false.
package config

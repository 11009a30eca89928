// Package harness runs container scenarios and checks their outcome.
//
// A scenario declares views, seeds a container with some of them, applies a
// list of steps and then evaluates assertions against the final container,
// the views and the run journal.
//
// # Scenario Format
//
// Scenarios are YAML (.yaml, .yml) or CUE (.cue) files:
//
//	name: insert_in_the_middle
//	description: "Adding at a position shifts later views right"
//	views:
//	  - name: a
//	  - name: b
//	    model: m1
//	  - name: d
//	    cid: fixed-d
//	seed: [a, b]
//	steps:
//	  - add: d
//	    at: 1
//	    key: footer
//	  - call: Render
//	  - remove: a
//	    strict: true
//	assertions:
//	  - type: order
//	    views: [d, b]
//	  - type: find
//	    by: custom
//	    key: footer
//	    expect: d
//
// A view without a cid gets one from the run's IDGenerator. Views naming the
// same model share one Model, which is their owner in the container.
//
// # Steps
//
//   - add: insert a view, optionally at a position and under a custom key
//   - remove: remove a view; with strict, a missing view is a NOT_FOUND error
//   - call: Call a method with args on every view
//
// A step may declare expect_error with a container error code (NOT_FOUND,
// INVOKE_FAILED, BAD_ARGUMENTS); the step then fails unless that error occurs.
//
// # Assertion Types
//
//   - order: the container holds exactly these views, in this order
//   - length: the container holds count views
//   - find: a lookup by identity, owner, custom or position returns expect,
//     or nothing when absent is set
//   - calls: a view recorded count calls of method
//   - journal: the run journal recorded count operations of kind op
//
// # Determinism
//
// Every step is stamped from a logical clock starting at 1 and every trace
// event carries the canonical hash of the ordered cids after the step, so
// identical scenarios produce byte-identical traces and golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/basic.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness

// Package replay runs scripted host sessions against an engine.
//
// A script is a YAML document giving the initial text and a list of steps,
// each one host event:
//
//	document: "The cat sat."
//	steps:
//	  - suggest: {id: s1, kind: replace, from: 4, to: 7, original: cat, proposed: dog}
//	  - edit: {from: 4, to: 4, text: "fat "}
//	  - expect: {pending: 1}
//	  - accept: s1
//	  - expect: {text: "The fat dog sat.", beacon: none}
//
// Steps run in order on the calling goroutine. An expect step compares the
// engine state and stops the run with an *ExpectationError on mismatch.
package replay

// Package mapping transforms offsets and ranges across a single document edit.
//
// Every component that stores positions (suggestions, the cursor beacon,
// highlight ranges) feeds each applied edit through this package so its
// offsets keep pointing at the same logical text. The functions are pure and
// hold no state.
//
// A range maps its Start with BiasRight and its End with BiasLeft, so typing
// exactly on a range boundary never grows the range:
//
//	r := buffer.NewRange(4, 7)                               // "cat" in "The cat sat."
//	r = mapping.MapRange(r, buffer.NewInsert(4, "fat "))     // [8:11)
//	r = mapping.MapRange(r, buffer.NewInsert(11, "s"))       // [8:11)
package mapping

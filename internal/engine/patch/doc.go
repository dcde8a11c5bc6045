// Package patch renders pending suggestions as a unified diff.
//
// The diff is what accepting every pending suggestion, in document order,
// would do to the current text. It lets a host review or export a batch of
// suggestions without touching the document:
//
//	res, err := patch.Render("draft.tex", e.Text(), e.Pending(), patch.DefaultContext)
//	os.Stdout.Write(res.Diff)
package patch

// Package engine is the host-facing facade of the suggestion overlay.
//
// An Engine owns the document buffer, the suggestion registry, the cursor
// beacon and the highlight store. Hosts report user activity through the
// inbound calls (CommitEdit, Blur, Focus, SelectionChange, Register,
// SetHighlightRanges, Accept, Reject) and observe the results either by
// subscribing to the event bus or by passing a Listener:
//
//	eng := engine.New(text, engine.WithListener(engine.ListenerFuncs{
//		OnSuggestionsChanged: func(p engine.SuggestionsChanged) { redraw(p.Pending) },
//		OnEditApplied: func(p engine.EditApplied) {
//			if p.Source == engine.SourceAccept {
//				widget.Apply(p.Descriptor)
//			}
//		},
//	}))
//
// Every applied edit, whether committed by the host or produced by accepting
// a suggestion, reaches every component before the call returns.
// Notifications are published afterwards, outside the engine lock.
//
// A commit whose offsets fall outside the document means host and engine no
// longer agree on the text. It panics with *DesyncError.
package engine

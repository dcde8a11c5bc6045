package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sanity-io/litter"

	"github.com/dshills/marginalia/internal/engine"
)

// writeSummary prints the engine state for humans.
func writeSummary(w io.Writer, snap engine.Snapshot) {
	_, _ = fmt.Fprintf(w, "version: %s\n", snap.Version)
	_, _ = fmt.Fprintf(w, "text: %q\n", snap.Text)
	if snap.BeaconSet {
		_, _ = fmt.Fprintf(w, "beacon: %d\n", snap.Beacon)
	} else {
		_, _ = fmt.Fprintln(w, "beacon: none")
	}

	if len(snap.Pending) > 0 {
		_, _ = fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tKIND\tRANGE\tORIGINAL\tPROPOSED")
		for _, s := range snap.Pending {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%q\t%q\n", s.ID, s.Kind, s.Range, s.OriginalText, s.ProposedText)
		}
		_ = tw.Flush()
	}

	if len(snap.Highlights) > 0 {
		_, _ = fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "HIGHLIGHT\tTAG")
		for _, h := range snap.Highlights {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", h.Range, h.Tag)
		}
		_ = tw.Flush()
	}
}

// writeDump prints the full snapshot structure.
func writeDump(w io.Writer, snap engine.Snapshot) {
	opts := litter.Options{HidePrivateFields: true, StripPackageNames: true}
	_, _ = fmt.Fprintln(w, opts.Sdump(snap))
}

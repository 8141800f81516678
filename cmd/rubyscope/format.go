package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatEntriesText formats CLIEntry results as aligned columns.
func formatEntriesText(w io.Writer, entries []CLIEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FQN\tKIND\tVISIBILITY\tFILE\tLINE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			e.FQN, e.Kind, e.Visibility, e.File, e.StartLine)
	}
	tw.Flush()
}

// formatLocationsText formats CLILocation results as "file:line:col" lines.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\n", loc.File, loc.StartLine, loc.StartCol)
	}
}

// formatAncestorsText formats an ancestor chain in lookup order.
func formatAncestorsText(w io.Writer, chain []CLIAncestor) {
	for _, a := range chain {
		fmt.Fprintf(w, "%d\t%s\n", a.Position, a.FQN)
	}
}

// formatResolutionsText formats method resolution answers as aligned
// columns.
func formatResolutionsText(w io.Writer, resolutions []CLIResolution) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FQN\tORIGIN\tVISIBILITY\tFILE\tLINE")
	for _, r := range resolutions {
		origin := r.Origin
		if r.OriginFrom != "" {
			origin = fmt.Sprintf("%s (%s)", r.Origin, r.OriginFrom)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			r.FQN, origin, r.Visibility, r.File, r.StartLine)
	}
	tw.Flush()
}

// formatConstantText formats a constant resolution answer.
func formatConstantText(w io.Writer, c CLIConstant) {
	fmt.Fprintf(w, "%s\n", c.FQN)
	formatEntriesText(w, c.Entries)
}

// formatNamesText prints one name per line.
func formatNamesText(w io.Writer, names []string) {
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
}

// outputResultText dispatches to the appropriate text formatter based on
// the result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLIEntry:
		formatEntriesText(w, v)
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLIAncestor:
		formatAncestorsText(w, v)
	case []CLIResolution:
		formatResolutionsText(w, v)
	case CLIConstant:
		formatConstantText(w, v)
	case []string:
		formatNamesText(w, v)
	case nil:
		// No output for nil results (e.g., unresolvable constant).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

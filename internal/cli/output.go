package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// printer writes command results in the selected format.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(opts *RootOptions, w io.Writer) *printer {
	return &printer{format: opts.Format, w: w}
}

// print emits v as indented JSON, or calls text for human-readable output.
func (p *printer) print(v any, text func(w io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}

func kv(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "%-16s %v\n", key+":", value)
}

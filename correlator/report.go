package correlator

import (
	"fmt"
	"io"
)

// WriteReport renders findings in the plain-text format the original
// pollcatch-decoder CLI used (one poll per paragraph, leading frames then
// an elided-frame count), grounded on
// original_source/decoder/src/main.rs's print_samples.
func WriteReport(w io.Writer, findings []Finding) error {
	for _, f := range findings {
		if _, err := fmt.Fprintf(w, "[%.6f] tid=%d poll of %.1fus\n", f.StartTimeSeconds, f.TID, f.DurationMicros); err != nil {
			return err
		}
		for i, frame := range f.Frames {
			class := frame.Class
			if class == "" {
				class = "<unknown>"
			}
			method := frame.Method
			if method == "" {
				method = "<unknown>"
			}
			if _, err := fmt.Fprintf(w, " - %3d: %s.%s\n", i+1, class, method); err != nil {
				return err
			}
		}
		if f.ElidedFrames > 0 {
			if _, err := fmt.Fprintf(w, " - %3d more frame(s)\n", f.ElidedFrames); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

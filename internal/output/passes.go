package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/star/issblh/internal/passes"
	"github.com/star/issblh/internal/transform"
)

type passReport struct {
	Observer transform.Geodetic `json:"observer" yaml:"observer"`
	Passes   []passes.Pass      `json:"passes" yaml:"passes"`
}

// RenderPasses writes predicted passes, one row per pass in text format.
func RenderPasses(w io.Writer, observer transform.Geodetic, ps []passes.Pass, format Format) error {
	if ps == nil {
		ps = []passes.Pass{}
	}
	switch format {
	case Text:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "START (UTC)\tMAX (UTC)\tEND (UTC)\tMAX EL(°)\tAZ RISE/MAX/SET(°)\tDURATION")
		for _, p := range ps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.0f/%.0f/%.0f\t%ds\n",
				p.Start.UTC().Format("2006-01-02 15:04:05"),
				p.Max.UTC().Format("15:04:05"),
				p.End.UTC().Format("15:04:05"),
				p.MaxElevation, p.StartAzimuth, p.AzimuthAtMax, p.EndAzimuth,
				int(p.DurationSeconds))
		}
		return tw.Flush()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(passReport{Observer: observer, Passes: ps})
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(passReport{Observer: observer, Passes: ps}); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

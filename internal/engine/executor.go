package engine

import (
	"log/slog"

	"github.com/roach88/iocplan/internal/graph"
)

// ExecutionRecord describes one executed action.
type ExecutionRecord struct {
	Seq        int64  `json:"seq"`
	Unit       string `json:"unit"`
	Element    string `json:"element"`
	Kind       string `json:"kind"`
	Annotation string `json:"annotation"`
	Binding    string `json:"binding"`
	Handled    bool   `json:"handled"`
}

// Executable is a payload item the executor runs.
type Executable interface {
	Execute() (bool, error)
}

// execute runs every Executable item of the sorted units in order. Each is
// stamped with the next clock value. The first error stops the walk; the
// records gathered so far are returned alongside it.
func execute(units []*graph.Unit, clock *Clock) ([]ExecutionRecord, int, error) {
	var (
		records    []ExecutionRecord
		suppressed int
	)

	for _, u := range units {
		for _, item := range u.Items {
			exec, ok := item.(Executable)
			if !ok {
				continue
			}

			handled, err := exec.Execute()
			if err != nil {
				slog.Debug("execution aborted",
					"unit", string(u.Key),
					"error", err,
				)
				return records, suppressed, err
			}

			rec := ExecutionRecord{
				Seq:     clock.Next(),
				Unit:    string(u.Key),
				Handled: handled,
			}
			if a, ok := item.(*Action); ok {
				rec.Element = a.Element.Name()
				rec.Kind = a.Element.Kind().String()
				rec.Annotation = a.Annotation.Name
				rec.Binding = a.Entry.Name
			}
			records = append(records, rec)

			if !handled {
				suppressed++
				slog.Debug("handling suppressed",
					"unit", rec.Unit,
					"element", rec.Element,
					"annotation", rec.Annotation,
				)
			}
		}
	}
	return records, suppressed, nil
}

package compiler

import (
	"slices"

	"github.com/roach88/iocplan/internal/ir"
)

// Merge concatenates catalogs in argument order. Packages are deduplicated;
// duplicate declarations are kept and reported by Validate.
func Merge(parts ...*ir.Catalog) *ir.Catalog {
	out := &ir.Catalog{}
	for _, c := range parts {
		if c == nil {
			continue
		}
		for _, p := range c.Packages {
			if !slices.Contains(out.Packages, p) {
				out.Packages = append(out.Packages, p)
			}
		}
		out.Annotations = append(out.Annotations, c.Annotations...)
		out.Types = append(out.Types, c.Types...)
		out.Bindings = append(out.Bindings, c.Bindings...)
	}
	return out
}

package ir

import (
	"fmt"
	"strings"
)

// Order is the direction of an ordering rule.
type Order int

const (
	// Before orders the rule's owner ahead of the related annotation.
	Before Order = iota + 1
	// After orders the rule's owner behind the related annotation.
	After
)

func (o Order) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// ParseOrder parses "before" or "after" (case-insensitive).
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	default:
		return 0, fmt.Errorf("unknown order %q: must be before or after", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) {
	if o != Before && o != After {
		return nil, fmt.Errorf("invalid order %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	parsed, err := ParseOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Rule says the owning binding is processed Before or After every binding
// for Annotation.
type Rule struct {
	Annotation string `json:"annotation"`
	Order      Order  `json:"order"`
}

// BeforeAnnotation is shorthand for Rule{Annotation: name, Order: Before}.
func BeforeAnnotation(name string) Rule {
	return Rule{Annotation: name, Order: Before}
}

// AfterAnnotation is shorthand for Rule{Annotation: name, Order: After}.
func AfterAnnotation(name string) Rule {
	return Rule{Annotation: name, Order: After}
}

func (r Rule) String() string {
	return r.Order.String() + " @" + r.Annotation
}

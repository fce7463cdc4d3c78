package compiler

import (
	"fmt"
	"math/big"

	"cuelang.org/go/cue"
	"github.com/zclconf/go-cty/cty"

	"github.com/roach88/iocplan/internal/ir"
)

// cueToValue converts a concrete CUE value into an IR attribute value.
// Floats are rejected.
func cueToValue(v cue.Value, field string) (ir.Value, error) {
	switch v.IncompleteKind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(i), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		list := ir.List{}
		for i := 0; iter.Next(); i++ {
			elem, err := cueToValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.Object{}
		for iter.Next() {
			name := fieldLabel(iter)
			elem, err := cueToValue(iter.Value(), field+"."+name)
			if err != nil {
				return nil, err
			}
			obj[name] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "floats are not allowed in annotation attributes, use int",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported attribute kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// ctyToValue converts an evaluated HCL expression into an IR attribute
// value. Numbers must be integral.
func ctyToValue(val cty.Value) (ir.Value, error) {
	if val.IsNull() {
		return ir.Null{}, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return ir.String(val.AsString()), nil
	case ty == cty.Bool:
		return ir.Bool(val.True()), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if !bf.IsInt() {
			return nil, fmt.Errorf("floats are not allowed in annotation attributes: %s", bf.Text('g', -1))
		}
		i, acc := bf.Int64()
		if acc != big.Exact {
			return nil, fmt.Errorf("number out of int64 range: %s", bf.Text('g', -1))
		}
		return ir.Int(i), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		list := ir.List{}
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			elem, err := ctyToValue(ev)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", len(list), err)
			}
			list = append(list, elem)
		}
		return list, nil
	case ty.IsObjectType() || ty.IsMapType():
		obj := ir.Object{}
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			key := k.AsString()
			elem, err := ctyToValue(ev)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", key, err)
			}
			obj[key] = elem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type: %s", ty.FriendlyName())
	}
}

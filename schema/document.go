package schema

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/bitpack/errs"
	"github.com/arloliu/bitpack/format"
)

// Document is a set of named records and unions parsed from a schema file.
type Document struct {
	// Root is the record messages are encoded with.
	Root  *Record
	types map[string]Type
	order []string

	// record being declared and its self reference, if any field used one
	current string
	self    *Ref
}

// Lookup returns the named record or union.
func (d *Document) Lookup(name string) (Type, bool) {
	t, ok := d.types[name]
	return t, ok
}

// Names returns the declared type names in declaration order.
func (d *Document) Names() []string {
	return append([]string(nil), d.order...)
}

type documentSpec struct {
	Root  string     `yaml:"root"`
	Types []typeDecl `yaml:"types"`
}

type typeDecl struct {
	Record string     `yaml:"record"`
	Union  string     `yaml:"union"`
	Fields []typeSpec `yaml:"fields"`
	Cases  []caseSpec `yaml:"cases"`
}

type caseSpec struct {
	Name    string     `yaml:"name"`
	Payload []typeSpec `yaml:"payload"`
}

// typeSpec describes a field or element type. Bounds are kept as text so
// 64-bit integer limits survive parsing unchanged.
type typeSpec struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Min      string    `yaml:"min"`
	Max      string    `yaml:"max"`
	Bits     int       `yaml:"bits"`
	MaxCount int       `yaml:"maxCount"`
	Elem     *typeSpec `yaml:"elem"`
	Default  any       `yaml:"default"`
}

// ParseDocument parses a YAML or JSON schema document.
//
// A document lists records and unions under "types" and names the message
// record under "root". A type may only reference types declared before it,
// and a record may refer to itself inside an array, list or optional:
//
//	root: Position
//	types:
//	  - record: Position
//	    fields:
//	      - {name: id, type: uint, min: 0, max: 100000}
//	      - {name: x, type: float, min: -128, max: 128, bits: 20}
//	      - {name: tags, type: array, maxCount: 8, elem: {type: string}}
//	      - {name: escort, type: optional, elem: {type: Position}}
//
// Field types are the raw type names (bool, int8 ... uint64, float32,
// float64, string), the compressed kinds int, uint, float and double with min,
// max and bits, bits with bits, array with elem and maxCount, list with elem,
// bytes with an optional maxCount, optional with elem, skip with an optional
// default, or the name of an earlier record or union or of the record itself.
func ParseDocument(data []byte) (*Document, error) {
	var parsed documentSpec
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidSchema, err)
	}

	if len(parsed.Types) == 0 {
		return nil, fmt.Errorf("%w: document declares no types", errs.ErrInvalidSchema)
	}

	doc := &Document{types: make(map[string]Type, len(parsed.Types))}

	for i, decl := range parsed.Types {
		name, t, err := doc.build(decl)
		if err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}
		if _, dup := doc.types[name]; dup {
			return nil, fmt.Errorf("%w: type %q declared twice", errs.ErrInvalidSchema, name)
		}

		doc.types[name] = t
		doc.order = append(doc.order, name)
	}

	rootName := parsed.Root
	if rootName == "" {
		rootName = doc.order[len(doc.order)-1]
	}

	root, ok := doc.types[rootName].(*Record)
	if !ok {
		return nil, fmt.Errorf("%w: root %q is not a declared record", errs.ErrInvalidSchema, rootName)
	}
	doc.Root = root

	return doc, nil
}

func (d *Document) build(decl typeDecl) (string, Type, error) {
	switch {
	case decl.Record != "" && decl.Union != "":
		return "", nil, fmt.Errorf("%w: %q declares both record and union", errs.ErrInvalidSchema, decl.Record)
	case decl.Record != "":
		d.current, d.self = decl.Record, nil
		defer func() { d.current, d.self = "", nil }()

		fields := make([]Field, len(decl.Fields))
		for i, fs := range decl.Fields {
			t, err := d.resolve(fs)
			if err != nil {
				return "", nil, fmt.Errorf("record %s: field %q: %w", decl.Record, fs.Name, err)
			}
			fields[i] = Field{Name: fs.Name, Type: t}
		}

		rec, err := NewRecord(decl.Record, fields...)
		if err != nil {
			return "", nil, err
		}
		if d.self != nil {
			if err := d.self.Resolve(rec); err != nil {
				return "", nil, err
			}
		}

		return decl.Record, rec, nil
	case decl.Union != "":
		cases := make([]Case, len(decl.Cases))
		for i, cs := range decl.Cases {
			payload := make([]Type, len(cs.Payload))
			for j, ps := range cs.Payload {
				t, err := d.resolve(ps)
				if err != nil {
					return "", nil, fmt.Errorf("union %s: case %q: %w", decl.Union, cs.Name, err)
				}
				payload[j] = t
			}
			cases[i] = NewCase(cs.Name, payload...)
		}

		u, err := NewUnion(decl.Union, cases...)
		if err != nil {
			return "", nil, err
		}

		return decl.Union, u, nil
	default:
		return "", nil, fmt.Errorf("%w: type declaration needs a record or union name", errs.ErrInvalidSchema)
	}
}

func (d *Document) resolve(ts typeSpec) (Type, error) {
	if raw, ok := format.ParseRawType(ts.Type); ok {
		return RawOf(raw), nil
	}

	switch ts.Type {
	case "int":
		lo, hi, err := parseBounds(ts, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
		if err != nil {
			return nil, err
		}

		return IntOf(lo, hi), nil
	case "uint":
		lo, hi, err := parseBounds(ts, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) })
		if err != nil {
			return nil, err
		}

		return UintOf(lo, hi), nil
	case "float":
		lo, hi, err := parseBounds(ts, func(s string) (float64, error) { return strconv.ParseFloat(s, 32) })
		if err != nil {
			return nil, err
		}

		return FloatOf(float32(lo), float32(hi), ts.Bits), nil
	case "double":
		lo, hi, err := parseBounds(ts, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
		if err != nil {
			return nil, err
		}

		return DoubleOf(lo, hi, ts.Bits), nil
	case "bits":
		return BitsOf(ts.Bits), nil
	case "bytes":
		return BytesOf(ts.MaxCount), nil
	case "skip":
		return SkipOf(ts.Default), nil
	case "array", "list", "optional":
		if ts.Elem == nil {
			return nil, fmt.Errorf("%w: %s needs an elem type", errs.ErrInvalidSchema, ts.Type)
		}

		elem, err := d.resolve(*ts.Elem)
		if err != nil {
			return nil, fmt.Errorf("elem: %w", err)
		}

		switch ts.Type {
		case "array":
			return ArrayOf(elem, ts.MaxCount), nil
		case "list":
			return ListOf(elem), nil
		default:
			return OptionalOf(elem), nil
		}
	case "":
		return nil, fmt.Errorf("%w: missing type", errs.ErrInvalidSchema)
	default:
		if t, ok := d.types[ts.Type]; ok {
			return t, nil
		}
		if ts.Type == d.current {
			if d.self == nil {
				d.self = NewRef(d.current)
			}

			return d.self, nil
		}

		return nil, fmt.Errorf("%w: unknown type %q, types must be declared before use", errs.ErrInvalidSchema, ts.Type)
	}
}

func parseBounds[T any](ts typeSpec, parse func(string) (T, error)) (T, T, error) {
	var zero T
	if ts.Min == "" || ts.Max == "" {
		return zero, zero, fmt.Errorf("%w: %s needs min and max", errs.ErrInvalidBounds, ts.Type)
	}

	lo, err := parse(ts.Min)
	if err != nil {
		return zero, zero, fmt.Errorf("%w: min %q: %w", errs.ErrInvalidBounds, ts.Min, err)
	}
	hi, err := parse(ts.Max)
	if err != nil {
		return zero, zero, fmt.Errorf("%w: max %q: %w", errs.ErrInvalidBounds, ts.Max, err)
	}

	return lo, hi, nil
}

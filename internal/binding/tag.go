package binding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/bitpack/errs"
)

const tagName = "bit"

// tag is a parsed `bit:"..."` struct tag.
//
//	bit:"int,min=0,max=100000"
//	bit:"float,min=-128,max=128,bits=20"
//	bit:"bits=3"
//	bit:"array,count=10"
//	bit:"uint,min=0,max=7,count=4"
//	bit:"bytes,count=16"
//	bit:"-"
type tag struct {
	skip      bool
	scalar    string // int, uint, float or double
	container string // array, list or bytes
	min       string
	max       string
	bits      int
	count     int
}

func parseTag(s string) (tag, error) {
	var t tag
	if s == "" {
		return t, nil
	}
	if s == "-" {
		t.skip = true
		return t, nil
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		key, value, hasValue := strings.Cut(part, "=")
		if !hasValue {
			switch key {
			case "int", "uint", "float", "double":
				if t.scalar != "" {
					return t, fmt.Errorf("%w: tag %q names two kinds", errs.ErrInvalidSchema, s)
				}
				t.scalar = key
			case "array", "list", "bytes":
				t.container = key
			case "":
			default:
				return t, fmt.Errorf("%w: tag %q: unknown option %q", errs.ErrInvalidSchema, s, key)
			}

			continue
		}

		switch key {
		case "min":
			t.min = value
		case "max":
			t.max = value
		case "bits", "count":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return t, fmt.Errorf("%w: tag %q: %s must be a positive integer", errs.ErrInvalidSchema, s, key)
			}
			if key == "bits" {
				t.bits = n
			} else {
				t.count = n
			}
		default:
			return t, fmt.Errorf("%w: tag %q: unknown option %q", errs.ErrInvalidSchema, s, key)
		}
	}

	return t, nil
}

// elem returns the tag applied to the elements of a collection.
func (t tag) elem() tag {
	t.container = ""
	t.count = 0

	return t
}

func (t tag) hasBounds() bool {
	return t.min != "" || t.max != ""
}

func (t tag) isZero() bool {
	return t == tag{}
}

package metadata

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindStrv
	KindOptional
	KindMutRef
	KindNamed
)

var builtInKinds = map[string]Kind{
	"bool":     KindBool,
	"int8":     KindInt8,
	"int16":    KindInt16,
	"int32":    KindInt32,
	"int64":    KindInt64,
	"uint8":    KindUint8,
	"uint16":   KindUint16,
	"uint32":   KindUint32,
	"uint64":   KindUint64,
	"float32":  KindFloat32,
	"float64":  KindFloat64,
	"string":   KindString,
	"bytes":    KindBytes,
	"[]byte":   KindBytes,
	"[]string": KindStrv,
	"void":     KindVoid,
}

// The semantic type of a parameter or return value.
type TypeRef struct {
	Kind Kind
	// The type name of KindNamed references.
	Name string
	// Whether a KindNamed reference is a pointer, e.g. `*Rectangle`.
	Pointer bool
	// The inner type of KindOptional and KindMutRef references.
	Elem *TypeRef
}

// The name used in descriptors for the owning type.
const SelfTypeName = "Self"

// Parses the descriptor notation of a type:
//
//	bool, int8 … uint64, float32, float64, string, bytes, []string, void
//	?T        optional T
//	&mut T    mutable reference to a numeric T
//	Name      a named type, *Name for a pointer to it
//
// An empty string means void.
func ParseTypeRef(source string) (TypeRef, error) {
	text := strings.TrimSpace(source)
	if text == "" {
		return TypeRef{Kind: KindVoid}, nil
	}

	if kind, found := builtInKinds[text]; found {
		return TypeRef{Kind: kind}, nil
	}

	if inner, found := strings.CutPrefix(text, "?"); found {
		elem, err := ParseTypeRef(inner)
		if err != nil {
			return TypeRef{}, err
		}
		if elem.Kind == KindVoid || elem.Kind == KindOptional || elem.Kind == KindMutRef {
			return TypeRef{}, fmt.Errorf("type %q: %s cannot be optional", source, elem)
		}
		return TypeRef{Kind: KindOptional, Elem: &elem}, nil
	}

	if inner, found := strings.CutPrefix(text, "&mut "); found {
		elem, err := ParseTypeRef(inner)
		if err != nil {
			return TypeRef{}, err
		}
		return TypeRef{Kind: KindMutRef, Elem: &elem}, nil
	}

	pointer := false
	if inner, found := strings.CutPrefix(text, "*"); found {
		pointer = true
		text = strings.TrimSpace(inner)
	}
	if !isIdentifier(text) {
		return TypeRef{}, fmt.Errorf("type %q is not a valid type reference", source)
	}
	return TypeRef{Kind: KindNamed, Name: text, Pointer: pointer}, nil
}

func isIdentifier(text string) bool {
	if text == "" {
		return false
	}
	for i, r := range text {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if !letter && !(digit && i > 0) {
			return false
		}
	}
	return true
}

func (t TypeRef) String() string {
	switch t.Kind {
	case KindOptional:
		return "?" + t.Elem.String()
	case KindMutRef:
		return "&mut " + t.Elem.String()
	case KindNamed:
		if t.Pointer {
			return "*" + t.Name
		}
		return t.Name
	case KindBytes:
		return "bytes"
	}
	for name, kind := range builtInKinds {
		if kind == t.Kind && name != "[]byte" {
			return name
		}
	}
	return fmt.Sprintf("Kind(%d)", int(t.Kind))
}

func (t TypeRef) IsVoid() bool {
	return t.Kind == KindVoid
}

// Reports whether the type is a fixed-width integer or float.
func (t TypeRef) IsNumeric() bool {
	return t.Kind >= KindInt8 && t.Kind <= KindFloat64
}

// Reports whether the type names the owning type `self`.
func (t TypeRef) IsSelf(binding Binding) bool {
	return t.Kind == KindNamed && t.Name == binding.Name
}

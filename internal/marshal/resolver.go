package marshal

import (
	"fmt"
	"strings"

	"ffigen/internal/metadata"

	"github.com/dave/jennifer/jen"
)

// The type a value has in an exported function's signature.
type ABIType struct {
	// The Go scalar cgo translates for the C side: int32, uint64, uintptr…
	Scalar string
	// Set for mutable references, which cross as *Scalar.
	Pointer bool
	// The C spelling, used in plans and diagnostics.
	CName string
}

func (a ABIType) Code() *jen.Statement {
	if a.Pointer {
		return jen.Op("*").Id(a.Scalar)
	}
	return jen.Id(a.Scalar)
}

// Where a value appears in a signature. Binding-typed parameters default to
// borrowed, binding-typed returns to owned.
type Role int

const (
	RoleParam Role = iota
	RoleReturn
)

// How one parameter or return value crosses the boundary.
type Resolution struct {
	Type   metadata.TypeRef
	ABI    ABIType
	GoType jen.Code
	Mode   metadata.TransferMode
	Family Family

	// Set for optional values; Elem is the inner value's resolution.
	Optional bool
	Elem     *Resolution

	// Set for mutable references, which are passed through as pointers and
	// never converted under a transfer mode.
	MutRef bool
}

func (r Resolution) IsVoid() bool {
	return r.Type.IsVoid()
}

// Converts the raw C value to the Go value the method receives.
func (r Resolution) FromC(raw jen.Code) *jen.Statement {
	switch {
	case r.MutRef:
		return jen.Add(raw)
	case r.Optional:
		return jen.Qual(RuntimePath, "OptionFrom").Call(
			raw,
			jen.Func().Params(jen.Id("v").Add(r.Elem.ABI.Code())).Add(r.Elem.GoType).Block(
				jen.Return(r.Elem.FromC(jen.Id("v"))),
			),
		)
	}
	return ConvertFrom(r.Mode, r.Family, raw, r.ABI, r.GoType)
}

// Converts the Go value a method returned to its C representation.
func (r Resolution) ToC(value jen.Code) *jen.Statement {
	if r.Optional {
		return jen.Qual(RuntimePath, "OptionTo").Call(
			value,
			jen.Func().Params(jen.Id("v").Add(r.Elem.GoType)).Add(r.Elem.ABI.Code()).Block(
				jen.Return(r.Elem.ToC(jen.Id("v"))),
			),
		)
	}
	return ConvertTo(r.Mode, r.Family, value, r.ABI, r.GoType)
}

func (r Resolution) ErrorValue() *jen.Statement {
	return ErrorValue(r.Mode)
}

// Describes the transfer of the value in plans: the mode, or `location` for
// mutable references.
func (r Resolution) TransferName() string {
	switch {
	case r.IsVoid():
		return ""
	case r.MutRef:
		return "location"
	}
	return r.Mode.String()
}

// Reported when a type has neither a built-in marshaling rule nor an
// explicit override.
type UnresolvedTypeError struct {
	Type metadata.TypeRef
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("type %s has no marshaling rule; declare a c_type override", e.Type)
}

// Reported when a binding type is referenced against its category: by value
// for pointer categories or through a pointer for enums and flags.
type CategoryError struct {
	Type     metadata.TypeRef
	Category metadata.Category
}

func (e *CategoryError) Error() string {
	if e.Type.Pointer {
		return fmt.Sprintf("%s is a %s type and crosses by value, not as %s", e.Type.Name, e.Category, e.Type)
	}
	return fmt.Sprintf("%s is a %s type and crosses as *%s", e.Type.Name, e.Category, e.Type.Name)
}

// Reported when an override is inconsistent with the type it applies to.
type OverrideError struct {
	Type     metadata.TypeRef
	Override metadata.TransferOverride
	Reason   string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("override %q for %s: %s", e.Override.String(), e.Type, e.Reason)
}

var scalarCNames = map[string]string{
	"int8":    "int8_t",
	"int16":   "int16_t",
	"int32":   "int32_t",
	"int64":   "int64_t",
	"uint8":   "uint8_t",
	"uint16":  "uint16_t",
	"uint32":  "uint32_t",
	"uint64":  "uint64_t",
	"float32": "float",
	"float64": "double",
	"uintptr": "uintptr_t",
}

// The C spellings accepted in overrides for each scalar.
var cScalarAliases = map[string]string{
	"int8": "int8", "int8_t": "int8", "gint8": "int8", "signed char": "int8",
	"int16": "int16", "int16_t": "int16", "gint16": "int16", "short": "int16",
	"int32": "int32", "int32_t": "int32", "gint32": "int32", "gint": "int32", "int": "int32", "gboolean": "int32",
	"int64": "int64", "int64_t": "int64", "gint64": "int64", "long long": "int64",
	"uint8": "uint8", "uint8_t": "uint8", "guint8": "uint8", "guchar": "uint8", "unsigned char": "uint8",
	"uint16": "uint16", "uint16_t": "uint16", "guint16": "uint16", "unsigned short": "uint16",
	"uint32": "uint32", "uint32_t": "uint32", "guint32": "uint32", "guint": "uint32", "unsigned int": "uint32",
	"uint64": "uint64", "uint64_t": "uint64", "guint64": "uint64", "unsigned long long": "uint64",
	"float32": "float32", "float": "float32", "gfloat": "float32",
	"float64": "float64", "double": "float64", "gdouble": "float64",
	"uintptr": "uintptr", "uintptr_t": "uintptr", "gsize": "uintptr", "size_t": "uintptr", "GType": "uintptr",
}

var numericScalars = map[metadata.Kind]string{
	metadata.KindInt8:    "int8",
	metadata.KindInt16:   "int16",
	metadata.KindInt32:   "int32",
	metadata.KindInt64:   "int64",
	metadata.KindUint8:   "uint8",
	metadata.KindUint16:  "uint16",
	metadata.KindUint32:  "uint32",
	metadata.KindUint64:  "uint64",
	metadata.KindFloat32: "float32",
	metadata.KindFloat64: "float64",
}

func scalarABI(scalar string) ABIType {
	return ABIType{Scalar: scalar, CName: scalarCNames[scalar]}
}

func pointerABI(cName string) ABIType {
	return ABIType{Scalar: "uintptr", CName: cName}
}

// Resolves semantic types to their C-ABI representation. It knows every
// binding of the descriptor so that methods can pass each other's types
// without overrides.
type Resolver struct {
	bindings map[string]metadata.Binding
}

func NewResolver(bindings []metadata.Binding) *Resolver {
	resolver := &Resolver{bindings: make(map[string]metadata.Binding, len(bindings))}
	for _, binding := range bindings {
		resolver.bindings[binding.Name] = binding
	}
	return resolver
}

func (r *Resolver) ResolveParam(param metadata.Parameter) (Resolution, error) {
	return r.Resolve(param.Type, param.Override, RoleParam)
}

func (r *Resolver) ResolveReturn(method metadata.Method) (Resolution, error) {
	return r.Resolve(method.Return, method.ReturnOverride, RoleReturn)
}

// Resolves t, applying override when given. For optional types the override
// describes the inner type.
func (r *Resolver) Resolve(t metadata.TypeRef, override *metadata.TransferOverride, role Role) (Resolution, error) {
	switch t.Kind {
	case metadata.KindVoid:
		return Resolution{Type: t}, nil

	case metadata.KindOptional:
		elem, err := r.Resolve(*t.Elem, override, role)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{
			Type:     t,
			ABI:      elem.ABI,
			GoType:   jen.Op("*").Add(elem.GoType),
			Mode:     elem.Mode,
			Family:   elem.Family,
			Optional: true,
			Elem:     &elem,
		}, nil

	case metadata.KindMutRef:
		scalar := numericScalars[t.Elem.Kind]
		if scalar == "" {
			return Resolution{}, &UnresolvedTypeError{Type: t}
		}
		return Resolution{
			Type:   t,
			ABI:    ABIType{Scalar: scalar, Pointer: true, CName: scalarCNames[scalar] + " *"},
			GoType: jen.Op("*").Id(scalar),
			MutRef: true,
		}, nil
	}

	goType := goTypeOf(t)
	if override != nil {
		return resolveOverride(t, goType, *override)
	}

	if scalar, found := numericScalars[t.Kind]; found {
		return Resolution{Type: t, ABI: scalarABI(scalar), GoType: goType, Mode: metadata.Primitive, Family: FamilyScalar}, nil
	}

	switch t.Kind {
	case metadata.KindBool:
		return Resolution{Type: t, ABI: scalarABI("int32"), GoType: goType, Mode: metadata.Primitive, Family: FamilyBoolean}, nil
	case metadata.KindString:
		return Resolution{Type: t, ABI: pointerABI("char *"), GoType: goType, Mode: metadata.Owned, Family: FamilyString}, nil
	case metadata.KindBytes:
		return Resolution{Type: t, ABI: pointerABI("FfigenBytes *"), GoType: goType, Mode: metadata.Owned, Family: FamilyBytes}, nil
	case metadata.KindStrv:
		return Resolution{Type: t, ABI: pointerABI("char **"), GoType: goType, Mode: metadata.Owned, Family: FamilyStrv}, nil
	case metadata.KindNamed:
		if binding, found := r.bindings[t.Name]; found {
			receiver := ForBinding(binding)
			if receiver.IsPointer() != t.Pointer {
				return Resolution{}, &CategoryError{Type: t, Category: binding.Category}
			}
			return receiver.Value(role), nil
		}
	}

	return Resolution{}, &UnresolvedTypeError{Type: t}
}

func goTypeOf(t metadata.TypeRef) jen.Code {
	switch t.Kind {
	case metadata.KindBool:
		return jen.Bool()
	case metadata.KindString:
		return jen.String()
	case metadata.KindBytes:
		return jen.Index().Byte()
	case metadata.KindStrv:
		return jen.Index().String()
	case metadata.KindNamed:
		if t.Pointer {
			return jen.Op("*").Id(t.Name)
		}
		return jen.Id(t.Name)
	}
	return jen.Id(numericScalars[t.Kind])
}

func resolveOverride(t metadata.TypeRef, goType jen.Code, override metadata.TransferOverride) (Resolution, error) {
	fail := func(reason string) (Resolution, error) {
		return Resolution{}, &OverrideError{Type: t, Override: override, Reason: reason}
	}

	cType := strings.TrimSpace(override.CType)
	pointer := strings.HasSuffix(cType, "*") || strings.HasPrefix(cType, "*")
	scalar, isScalar := cScalarAliases[cType]

	if override.Transfer == metadata.Primitive {
		if !isScalar {
			return fail("primitive transfer needs a numeric C type")
		}
		switch {
		case t.Kind == metadata.KindBool:
			if scalar != "int32" {
				return fail("booleans cross as 32-bit integers")
			}
			return Resolution{Type: t, ABI: ABIType{Scalar: scalar, CName: cType}, GoType: goType, Mode: metadata.Primitive, Family: FamilyBoolean}, nil
		case t.IsNumeric() || (t.Kind == metadata.KindNamed && !t.Pointer):
			return Resolution{Type: t, ABI: ABIType{Scalar: scalar, CName: cType}, GoType: goType, Mode: metadata.Primitive, Family: FamilyScalar}, nil
		}
		return fail("only numbers, booleans and named value types can be copied")
	}

	if !pointer {
		return fail(fmt.Sprintf("transfer=%s needs a pointer C type", override.Transfer))
	}

	var family Family
	switch t.Kind {
	case metadata.KindString:
		family = FamilyString
	case metadata.KindBytes:
		family = FamilyBytes
	case metadata.KindStrv:
		family = FamilyStrv
	case metadata.KindNamed:
		family = FamilyHandle
	default:
		return fail(fmt.Sprintf("%s values are copied, use transfer=primitive", t))
	}

	return Resolution{Type: t, ABI: pointerABI(cType), GoType: goType, Mode: override.Transfer, Family: family}, nil
}

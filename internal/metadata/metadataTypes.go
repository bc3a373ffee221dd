// The package used for describing bindings: the types that own exported
// methods, their methods and the way every value crosses the C ABI.
package metadata

import (
	"fmt"
	"strings"
)

// The classification of a binding's owning type. It decides how `self` crosses
// the boundary. The zero value is deliberately invalid: every binding has to
// state its category.
type Category int

const (
	CategoryObject Category = iota + 1
	CategoryBoxed
	CategoryShared
	CategoryEnum
	CategoryFlags
)

var categoryNames = map[Category]string{
	CategoryObject: "object",
	CategoryBoxed:  "boxed",
	CategoryShared: "shared",
	CategoryEnum:   "enum",
	CategoryFlags:  "flags",
}

func ParseCategory(name string) (Category, error) {
	for category, categoryName := range categoryNames {
		if categoryName == name {
			return category, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q (want object, boxed, shared, enum or flags)", name)
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// The ownership contract of a value crossing the boundary.
type TransferMode int

const (
	// Value copy, no ownership involved.
	Primitive TransferMode = iota + 1
	// The receiving side must neither free nor keep the value.
	Borrowed
	// Ownership moves; exactly one side releases the value.
	Owned
)

func ParseTransferMode(name string) (TransferMode, error) {
	switch strings.ToLower(name) {
	case "primitive":
		return Primitive, nil
	case "none", "borrowed":
		return Borrowed, nil
	case "full", "owned":
		return Owned, nil
	}
	return 0, fmt.Errorf("unknown transfer mode %q (want primitive, none or full)", name)
}

func (m TransferMode) String() string {
	switch m {
	case Primitive:
		return "primitive"
	case Borrowed:
		return "none"
	case Owned:
		return "full"
	}
	return fmt.Sprintf("TransferMode(%d)", int(m))
}

// An explicit C type and transfer mode for a value that has no built-in
// marshaling rule.
type TransferOverride struct {
	CType    string
	Transfer TransferMode
}

func (o TransferOverride) String() string {
	return fmt.Sprintf("%s, transfer=%s", o.CType, o.Transfer)
}

type Receiver int

const (
	// Constructors and other static methods.
	ReceiverNone Receiver = iota
	ReceiverSelf
)

type Parameter struct {
	Name     string
	Type     TypeRef
	Override *TransferOverride
}

type Method struct {
	Name           string
	GoName         string
	Receiver       Receiver
	Params         []Parameter
	Return         TypeRef
	ReturnOverride *TransferOverride
	Fallible       bool
	Async          bool
}

func (m Method) IsConstructor() bool {
	return m.Receiver == ReceiverNone
}

// A type whose methods are exported through the C ABI.
type Binding struct {
	// The Go type name.
	Name string
	// The registered type name, e.g. `CalcCalculator`.
	CTypeName string
	// The prefix of every exported symbol, e.g. `calc_calculator`.
	Prefix   string
	Category Category
	Methods  []Method
}

// A whole descriptor file after validation.
type Descriptor struct {
	Package  string
	Bindings []Binding
}

// Package marshal decides how every value crosses the C ABI and produces the
// conversion expressions generated wrappers use.
package marshal

import (
	"ffigen/internal/metadata"

	"github.com/dave/jennifer/jen"
)

const RuntimePath = "ffigen/ffirt"

// The native representation a value is marshaled through. Together with a
// transfer mode it fixes the conversion in both directions.
type Family int

const (
	// A number copied by value.
	FamilyScalar Family = iota
	// A Go bool carried as a 32-bit integer.
	FamilyBoolean
	// A NUL-terminated native string.
	FamilyString
	// A reference-counted byte buffer handle.
	FamilyBytes
	// A NULL-terminated native array of strings.
	FamilyStrv
	// A handle to a Go value registered with the runtime.
	FamilyHandle
)

func (f Family) String() string {
	switch f {
	case FamilyScalar:
		return "scalar"
	case FamilyBoolean:
		return "boolean"
	case FamilyString:
		return "string"
	case FamilyBytes:
		return "bytes"
	case FamilyStrv:
		return "strv"
	case FamilyHandle:
		return "handle"
	}
	return "unknown"
}

func (f Family) isPointer() bool {
	return f == FamilyString || f == FamilyBytes || f == FamilyStrv || f == FamilyHandle
}

func runtimePtr(raw jen.Code) *jen.Statement {
	return jen.Qual(RuntimePath, "Ptr").Call(raw)
}

func toABI(abi ABIType, value jen.Code) *jen.Statement {
	return jen.Id(abi.Scalar).Call(value)
}

// Converts the raw C value into goType. Borrowed values are only read; owned
// values are consumed, so the raw value must not be used afterwards.
func ConvertFrom(mode metadata.TransferMode, family Family, raw jen.Code, abi ABIType, goType jen.Code) *jen.Statement {
	owned := mode == metadata.Owned

	switch family {
	case FamilyBoolean:
		return jen.Qual(RuntimePath, "FromBoolean").Call(raw)
	case FamilyString:
		if owned {
			return jen.Qual(RuntimePath, "TakeString").Call(runtimePtr(raw))
		}
		return jen.Qual(RuntimePath, "PeekString").Call(runtimePtr(raw))
	case FamilyBytes:
		if owned {
			return jen.Qual(RuntimePath, "TakeBytes").Call(runtimePtr(raw))
		}
		return jen.Qual(RuntimePath, "PeekBytes").Call(runtimePtr(raw))
	case FamilyStrv:
		if owned {
			return jen.Qual(RuntimePath, "TakeStrv").Call(runtimePtr(raw))
		}
		return jen.Qual(RuntimePath, "PeekStrv").Call(runtimePtr(raw))
	case FamilyHandle:
		if owned {
			return jen.Qual(RuntimePath, "Take").Types(goType).Call(runtimePtr(raw))
		}
		return jen.Qual(RuntimePath, "Borrow").Types(goType).Call(runtimePtr(raw))
	}

	if sameType(goType, abi) {
		return jen.Add(raw)
	}
	return jen.Add(goType).Call(raw)
}

// Converts a Go value into its C representation. Owned results transfer a
// fresh allocation or reference; borrowed results stay owned by the runtime.
func ConvertTo(mode metadata.TransferMode, family Family, value jen.Code, abi ABIType, goType jen.Code) *jen.Statement {
	owned := mode == metadata.Owned

	switch family {
	case FamilyBoolean:
		return jen.Qual(RuntimePath, "ToBoolean").Call(value)
	case FamilyString:
		if owned {
			return toABI(abi, jen.Qual(RuntimePath, "NewString").Call(value))
		}
		return toABI(abi, jen.Qual(RuntimePath, "StaticString").Call(value))
	case FamilyBytes:
		if owned {
			return toABI(abi, jen.Qual(RuntimePath, "NewBytes").Call(value))
		}
		return toABI(abi, jen.Qual(RuntimePath, "StaticBytes").Call(value))
	case FamilyStrv:
		if owned {
			return toABI(abi, jen.Qual(RuntimePath, "NewStrv").Call(value))
		}
		return toABI(abi, jen.Qual(RuntimePath, "StaticStrv").Call(value))
	case FamilyHandle:
		if owned {
			return toABI(abi, jen.Qual(RuntimePath, "ToOwned").Call(value))
		}
		return toABI(abi, jen.Qual(RuntimePath, "ToBorrowed").Call(value))
	}

	if sameType(goType, abi) {
		return jen.Add(value)
	}
	return toABI(abi, value)
}

// The value returned in place of a result when an operation fails: zero for
// primitives, the null pointer for borrowed and owned values.
func ErrorValue(mode metadata.TransferMode) *jen.Statement {
	if mode == metadata.Borrowed || mode == metadata.Owned {
		return jen.Uintptr().Call(jen.Lit(0))
	}
	return jen.Lit(0)
}

// The C spelling of ErrorValue.
func SentinelName(mode metadata.TransferMode) string {
	if mode == metadata.Borrowed || mode == metadata.Owned {
		return "NULL"
	}
	return "0"
}

func sameType(goType jen.Code, abi ABIType) bool {
	return !abi.Pointer && jen.Add(goType).GoString() == abi.Scalar
}

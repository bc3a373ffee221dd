package marshal

import (
	"ffigen/internal/metadata"

	"github.com/dave/jennifer/jen"
)

// The self-parameter conventions of one binding, fixed by its category.
type Receiver struct {
	Binding metadata.Binding
}

func ForBinding(binding metadata.Binding) Receiver {
	return Receiver{Binding: binding}
}

// Object, boxed and shared values cross as pointers; enums and flags by
// value as fixed-width integers.
func (r Receiver) IsPointer() bool {
	switch r.Binding.Category {
	case metadata.CategoryEnum, metadata.CategoryFlags:
		return false
	}
	return true
}

// Only reference-counted objects retain a handle to report as the source of
// an asynchronous completion.
func (r Receiver) IsObject() bool {
	return r.Binding.Category == metadata.CategoryObject
}

func (r Receiver) ABI() ABIType {
	switch r.Binding.Category {
	case metadata.CategoryEnum:
		return ABIType{Scalar: "int32", CName: r.Binding.CTypeName}
	case metadata.CategoryFlags:
		return ABIType{Scalar: "uint32", CName: r.Binding.CTypeName}
	}
	return pointerABI(r.Binding.CTypeName + " *")
}

// The mode the incoming self parameter is converted with.
func (r Receiver) Mode() metadata.TransferMode {
	if r.IsPointer() {
		return metadata.Borrowed
	}
	return metadata.Primitive
}

// The Go type of self: *T for pointer categories, T otherwise.
func (r Receiver) GoType() jen.Code {
	if r.IsPointer() {
		return jen.Op("*").Id(r.Binding.Name)
	}
	return jen.Id(r.Binding.Name)
}

func (r Receiver) typeRef() metadata.TypeRef {
	return metadata.TypeRef{Kind: metadata.KindNamed, Name: r.Binding.Name, Pointer: r.IsPointer()}
}

// The resolution of the self parameter.
func (r Receiver) Self() Resolution {
	return r.Value(RoleParam)
}

// The resolution of a value of the binding's type: borrowed as a parameter,
// owned as a return (constructors hand out a fresh reference).
func (r Receiver) Value(role Role) Resolution {
	resolution := Resolution{
		Type:   r.typeRef(),
		ABI:    r.ABI(),
		GoType: r.GoType(),
		Mode:   r.Mode(),
		Family: FamilyScalar,
	}
	if r.IsPointer() {
		resolution.Family = FamilyHandle
		if role == RoleReturn {
			resolution.Mode = metadata.Owned
		}
	}
	return resolution
}

package marshal

import (
	"testing"

	"ffigen/internal/metadata"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
)

func TestConvertExpressions(t *testing.T) {
	pointer := pointerABI("void *")
	int32ABI := scalarABI("int32")
	calculator := jen.Op("*").Id("Calculator")

	tests := []struct {
		name   string
		mode   metadata.TransferMode
		family Family
		abi    ABIType
		goType jen.Code
		from   string
		to     string
	}{
		{"owned string", metadata.Owned, FamilyString, pointer, jen.String(), "ffirt.TakeString(ffirt.Ptr(raw))", "uintptr(ffirt.NewString(value))"},
		{"borrowed string", metadata.Borrowed, FamilyString, pointer, jen.String(), "ffirt.PeekString(ffirt.Ptr(raw))", "uintptr(ffirt.StaticString(value))"},
		{"owned bytes", metadata.Owned, FamilyBytes, pointer, jen.Index().Byte(), "ffirt.TakeBytes(ffirt.Ptr(raw))", "uintptr(ffirt.NewBytes(value))"},
		{"borrowed bytes", metadata.Borrowed, FamilyBytes, pointer, jen.Index().Byte(), "ffirt.PeekBytes(ffirt.Ptr(raw))", "uintptr(ffirt.StaticBytes(value))"},
		{"owned strv", metadata.Owned, FamilyStrv, pointer, jen.Index().String(), "ffirt.TakeStrv(ffirt.Ptr(raw))", "uintptr(ffirt.NewStrv(value))"},
		{"borrowed strv", metadata.Borrowed, FamilyStrv, pointer, jen.Index().String(), "ffirt.PeekStrv(ffirt.Ptr(raw))", "uintptr(ffirt.StaticStrv(value))"},
		{"owned handle", metadata.Owned, FamilyHandle, pointer, calculator, "ffirt.Take[*Calculator](ffirt.Ptr(raw))", "uintptr(ffirt.ToOwned(value))"},
		{"borrowed handle", metadata.Borrowed, FamilyHandle, pointer, calculator, "ffirt.Borrow[*Calculator](ffirt.Ptr(raw))", "uintptr(ffirt.ToBorrowed(value))"},
		{"boolean", metadata.Primitive, FamilyBoolean, int32ABI, jen.Bool(), "ffirt.FromBoolean(raw)", "ffirt.ToBoolean(value)"},
		{"same scalar", metadata.Primitive, FamilyScalar, int32ABI, jen.Id("int32"), "raw", "value"},
		{"named scalar", metadata.Primitive, FamilyScalar, int32ABI, jen.Id("Status"), "Status(raw)", "int32(value)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.from, render(ConvertFrom(tt.mode, tt.family, jen.Id("raw"), tt.abi, tt.goType)))
			assert.Equal(t, tt.to, render(ConvertTo(tt.mode, tt.family, jen.Id("value"), tt.abi, tt.goType)))
		})
	}
}

func TestErrorValue(t *testing.T) {
	assert.Equal(t, "0", render(ErrorValue(metadata.Primitive)))
	assert.Equal(t, "uintptr(0)", render(ErrorValue(metadata.Borrowed)))
	assert.Equal(t, "uintptr(0)", render(ErrorValue(metadata.Owned)))

	assert.Equal(t, "0", SentinelName(metadata.Primitive))
	assert.Equal(t, "NULL", SentinelName(metadata.Owned))
}

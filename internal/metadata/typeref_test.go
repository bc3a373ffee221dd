package metadata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeRef(t *testing.T) {
	int32Ref := TypeRef{Kind: KindInt32}
	stringRef := TypeRef{Kind: KindString}

	tests := []struct {
		source string
		want   TypeRef
	}{
		{"", TypeRef{Kind: KindVoid}},
		{"void", TypeRef{Kind: KindVoid}},
		{"bool", TypeRef{Kind: KindBool}},
		{"uint64", TypeRef{Kind: KindUint64}},
		{"float32", TypeRef{Kind: KindFloat32}},
		{"bytes", TypeRef{Kind: KindBytes}},
		{"[]byte", TypeRef{Kind: KindBytes}},
		{"[]string", TypeRef{Kind: KindStrv}},
		{"?string", TypeRef{Kind: KindOptional, Elem: &stringRef}},
		{"&mut int32", TypeRef{Kind: KindMutRef, Elem: &int32Ref}},
		{"Status", TypeRef{Kind: KindNamed, Name: "Status"}},
		{" *Rectangle ", TypeRef{Kind: KindNamed, Name: "Rectangle", Pointer: true}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := ParseTypeRef(tt.source)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseTypeRef(%q) mismatch (-want +got):\n%s", tt.source, diff)
			}
		})
	}
}

func TestParseTypeRefRejectsMalformedTypes(t *testing.T) {
	for _, source := range []string{"?void", "??int32", "?&mut int32", "map[string]int", "2fast", "&mut"} {
		_, err := ParseTypeRef(source)
		assert.Error(t, err, source)
	}
}

func TestTypeRefString(t *testing.T) {
	for _, source := range []string{"bool", "?int64", "&mut float64", "*Rectangle", "Status", "[]string", "bytes", "void"} {
		typeRef, err := ParseTypeRef(source)
		require.NoError(t, err)
		assert.Equal(t, source, typeRef.String())
	}
}

func TestTypeRefIsNumeric(t *testing.T) {
	assert.True(t, TypeRef{Kind: KindInt8}.IsNumeric())
	assert.True(t, TypeRef{Kind: KindFloat64}.IsNumeric())
	assert.False(t, TypeRef{Kind: KindBool}.IsNumeric())
	assert.False(t, TypeRef{Kind: KindString}.IsNumeric())
	assert.False(t, TypeRef{Kind: KindNamed, Name: "Status"}.IsNumeric())
}

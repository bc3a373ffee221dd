package metadata

import (
	"debug/pe"
	"fmt"
	"strings"

	"github.com/microsoft/go-winmd"
	"github.com/microsoft/go-winmd/flags"
)

// Reads enumerations and scalar typedefs out of a Windows metadata (.winmd)
// file so that descriptors can refer to them with `c_type: winmd:<name>`.
type WinMdReader struct {
	metadata *winmd.Metadata
}

// The map of integral element types an enumeration can be stored as to the
// matching C-ABI scalar names.
var enumElementTypes map[flags.ElementType]string = map[flags.ElementType]string{
	flags.ElementType_I1: "int8",
	flags.ElementType_I2: "int16",
	flags.ElementType_I4: "int32",
	flags.ElementType_I8: "int64",
	flags.ElementType_U1: "uint8",
	flags.ElementType_U2: "uint16",
	flags.ElementType_U4: "uint32",
	flags.ElementType_U8: "uint64",
}

// The map of types created by `typedef` in C code to scalar names.
var builtInTypeDefs map[string]string = map[string]string{
	"BOOL":     "int32",
	"BOOLEAN":  "uint8",
	"HRESULT":  "int32",
	"NTSTATUS": "int32",
}

// The field holding an enumeration's value in ECMA-335 metadata.
const enumValueField = "value__"

// Opens the WinMd file under given path.
func NewReader(winMdPath string) (*WinMdReader, error) {
	peFile, err := pe.Open(winMdPath)
	if err != nil {
		return nil, fmt.Errorf("could not open metadata file: %w", err)
	}
	defer peFile.Close()

	winmdMetadata, err := winmd.New(peFile)
	if err != nil {
		return nil, fmt.Errorf("could not read metadata from '%s': %w", winMdPath, err)
	}

	return &WinMdReader{winmdMetadata}, nil
}

// Resolves the enumeration (or well-known scalar typedef) with given name to
// its storage type. The name may be namespace-qualified, e.g.
// `Windows.Win32.Foundation.WIN32_ERROR`.
func (reader *WinMdReader) ResolveEnum(name string) (string, error) {
	namespace, typeName := splitQualifiedName(name)
	if scalar, found := builtInTypeDefs[typeName]; found {
		return scalar, nil
	}

	typeDef, err := reader.tryGetTypeDef(namespace, typeName)
	if err != nil {
		return "", err
	}
	if typeDef == nil {
		return "", fmt.Errorf("type '%s' was not found in Windows metadata", name)
	}

	for i := typeDef.FieldList.Start; i < typeDef.FieldList.End; i++ {
		field, err := reader.metadata.Tables.Field.Record(i)
		if err != nil {
			return "", fmt.Errorf("no matching field was found: %w", err)
		}
		if field.Name.String() != enumValueField {
			continue
		}

		fieldSignature, err := reader.metadata.FieldSignature(field.Signature)
		if err != nil {
			return "", fmt.Errorf("no matching field signature for '%s' was found: %w", name, err)
		}
		return scalarForElementType(name, fieldSignature.Type.Kind)
	}

	return "", fmt.Errorf("type '%s' is not an enumeration", name)
}

func scalarForElementType(name string, kind flags.ElementType) (string, error) {
	scalar, found := enumElementTypes[kind]
	if !found {
		return "", fmt.Errorf("enumeration '%s' has a non-integral storage type", name)
	}
	return scalar, nil
}

func splitQualifiedName(name string) (namespace string, typeName string) {
	separator := strings.LastIndex(name, ".")
	if separator < 0 {
		return "", name
	}
	return name[:separator], name[separator+1:]
}

// Finds the type definition with given name. An empty namespace matches any.
func (reader *WinMdReader) tryGetTypeDef(namespace string, name string) (*winmd.TypeDef, error) {
	table := reader.metadata.Tables.TypeDef
	for idx := uint32(0); idx < table.Len; idx++ {
		typeDef, err := table.Record(winmd.Index(idx))
		if err != nil {
			return nil, fmt.Errorf("could not read type definition %d: %w", idx, err)
		}
		if typeDef.Name.String() == name && (namespace == "" || typeDef.Namespace.String() == namespace) {
			return typeDef, nil
		}
	}

	return nil, nil
}

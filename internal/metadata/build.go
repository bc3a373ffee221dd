package metadata

import (
	"fmt"
	"strings"
)

// Resolves an enumeration defined outside the descriptor to the C scalar
// type it is stored as, e.g. `uint32`.
type EnumResolver interface {
	ResolveEnum(name string) (string, error)
}

const winmdOverridePrefix = "winmd:"

// Turns a parsed descriptor file into validated bindings. resolver may be
// nil when no parameter refers to Windows metadata.
func Build(file *File, resolver EnumResolver) (*Descriptor, error) {
	if file.Package == "" {
		return nil, &DescriptorError{Message: "package name is missing"}
	}
	if len(file.Types) == 0 {
		return nil, &DescriptorError{Type: file.Package, Message: "descriptor declares no types"}
	}

	descriptor := &Descriptor{Package: file.Package}
	seenTypes := make(map[string]bool, len(file.Types))
	seenPrefixes := make(map[string]string, len(file.Types))

	for _, typeDoc := range file.Types {
		binding, err := buildBinding(file.Namespace, typeDoc, resolver)
		if err != nil {
			return nil, err
		}

		if seenTypes[binding.Name] {
			return nil, &DescriptorError{Type: binding.Name, Message: "type is declared twice"}
		}
		seenTypes[binding.Name] = true

		if other, found := seenPrefixes[binding.Prefix]; found {
			return nil, &DescriptorError{Type: binding.Name, Message: fmt.Sprintf("symbol prefix %q is already used by %s", binding.Prefix, other)}
		}
		seenPrefixes[binding.Prefix] = binding.Name

		descriptor.Bindings = append(descriptor.Bindings, binding)
	}

	return descriptor, nil
}

func buildBinding(namespace string, typeDoc TypeDocument, resolver EnumResolver) (Binding, error) {
	if typeDoc.Name == "" {
		return Binding{}, &DescriptorError{Message: "type name is missing"}
	}

	category, err := ParseCategory(typeDoc.Category)
	if err != nil {
		return Binding{}, &DescriptorError{Type: typeDoc.Name, Message: "invalid category", Err: err}
	}

	binding := Binding{
		Name:      typeDoc.Name,
		CTypeName: typeDoc.CTypeName,
		Prefix:    typeDoc.Prefix,
		Category:  category,
	}
	if binding.CTypeName == "" {
		binding.CTypeName = CamelCase(namespace) + typeDoc.Name
	}
	if binding.Prefix == "" {
		binding.Prefix = SnakeCase(typeDoc.Name)
		if namespace != "" {
			binding.Prefix = namespace + "_" + binding.Prefix
		}
	}

	seenMethods := make(map[string]bool, len(typeDoc.Methods))
	seenGoNames := make(map[string]bool, len(typeDoc.Methods))
	for _, methodDoc := range typeDoc.Methods {
		method, err := buildMethod(binding, methodDoc, resolver)
		if err != nil {
			return Binding{}, err
		}

		if seenMethods[method.Name] || method.Name == "get_type" {
			return Binding{}, &DescriptorError{Type: binding.Name, Method: method.Name, Message: "method name is already taken"}
		}
		seenMethods[method.Name] = true

		if seenGoNames[method.GoName] {
			return Binding{}, &DescriptorError{Type: binding.Name, Method: method.Name, Message: fmt.Sprintf("Go name %s is already taken", method.GoName)}
		}
		seenGoNames[method.GoName] = true

		binding.Methods = append(binding.Methods, method)
	}

	return binding, nil
}

func buildMethod(binding Binding, methodDoc MethodDocument, resolver EnumResolver) (Method, error) {
	fail := func(param string, message string, err error) (Method, error) {
		return Method{}, &DescriptorError{Type: binding.Name, Method: methodDoc.Name, Param: param, Message: message, Err: err}
	}

	if methodDoc.Name == "" {
		return fail("", "method name is missing", nil)
	}

	method := Method{
		Name:     methodDoc.Name,
		GoName:   methodDoc.GoName,
		Receiver: ReceiverSelf,
		Fallible: methodDoc.Fallible,
		Async:    methodDoc.Async,
	}
	if methodDoc.Constructor {
		method.Receiver = ReceiverNone
	}
	if method.GoName == "" {
		method.GoName = defaultGoName(binding, method)
	}

	seenParams := make(map[string]bool, len(methodDoc.Params))
	for _, paramDoc := range methodDoc.Params {
		if paramDoc.Name == "self" {
			if method.IsConstructor() {
				return fail(paramDoc.Name, "constructors take no self parameter", nil)
			}
			return fail(paramDoc.Name, "self is implicit and must not be listed", nil)
		}
		if seenParams[paramDoc.Name] {
			return fail(paramDoc.Name, "parameter is declared twice", nil)
		}
		seenParams[paramDoc.Name] = true

		paramType, err := parseBindingType(binding, paramDoc.Type)
		if err != nil {
			return fail(paramDoc.Name, "invalid parameter type", err)
		}
		if paramType.IsVoid() {
			return fail(paramDoc.Name, "parameters cannot be void", nil)
		}
		if paramType.Kind == KindMutRef {
			if !paramType.Elem.IsNumeric() {
				return fail(paramDoc.Name, fmt.Sprintf("mutable references are limited to numeric types, not %s", paramType.Elem), nil)
			}
			if method.Async {
				return fail(paramDoc.Name, "asynchronous methods cannot take mutable references", nil)
			}
		}

		param := Parameter{Name: paramDoc.Name, Type: paramType}
		if paramDoc.CType != "" {
			override, err := parseParamOverride(paramDoc.CType, resolver)
			if err != nil {
				return fail(paramDoc.Name, "invalid c_type", err)
			}
			if paramType.Kind == KindMutRef {
				return fail(paramDoc.Name, "mutable references cannot carry a c_type override", nil)
			}
			param.Override = &override
		}

		method.Params = append(method.Params, param)
	}

	returnType, err := parseBindingType(binding, methodDoc.Returns)
	if err != nil {
		return fail("", "invalid return type", err)
	}
	if returnType.Kind == KindMutRef {
		return fail("", "mutable references cannot be returned", nil)
	}
	method.Return = returnType

	if methodDoc.CReturnType != "" {
		if returnType.IsVoid() {
			return fail("", "void returns cannot carry a c_return_type override", nil)
		}
		override, err := ParseTransferOverride(methodDoc.CReturnType)
		if err != nil {
			return fail("", "invalid c_return_type", err)
		}
		method.ReturnOverride = &override
	}

	return method, nil
}

func defaultGoName(binding Binding, method Method) string {
	if !method.IsConstructor() {
		return CamelCase(method.Name)
	}

	rest := strings.TrimPrefix(method.Name, "new")
	rest = strings.TrimPrefix(rest, "_")
	return "New" + binding.Name + CamelCase(rest)
}

// Parses a type and checks references to the owning type against its
// category: pointer categories cross as `*T`, enums and flags as `T`.
func parseBindingType(binding Binding, source string) (TypeRef, error) {
	typeRef, err := ParseTypeRef(source)
	if err != nil {
		return TypeRef{}, err
	}

	pointerCategory := binding.Category != CategoryEnum && binding.Category != CategoryFlags
	var check func(t *TypeRef) error
	check = func(t *TypeRef) error {
		if t.Elem != nil {
			return check(t.Elem)
		}
		if t.Kind != KindNamed {
			return nil
		}
		if t.Name == SelfTypeName {
			t.Name = binding.Name
			t.Pointer = pointerCategory
			return nil
		}
		if t.Name == binding.Name && t.Pointer != pointerCategory {
			want := binding.Name
			if pointerCategory {
				want = "*" + want
			}
			return fmt.Errorf("%s values cross as %s, not %s", binding.Category, want, t)
		}
		return nil
	}

	if err := check(&typeRef); err != nil {
		return TypeRef{}, err
	}
	return typeRef, nil
}

func parseParamOverride(text string, resolver EnumResolver) (TransferOverride, error) {
	name, found := strings.CutPrefix(text, winmdOverridePrefix)
	if !found {
		return ParseTransferOverride(text)
	}

	if resolver == nil {
		return TransferOverride{}, fmt.Errorf("%q refers to Windows metadata but none is loaded", text)
	}
	cType, err := resolver.ResolveEnum(strings.TrimSpace(name))
	if err != nil {
		return TransferOverride{}, err
	}
	return TransferOverride{CType: cType, Transfer: Primitive}, nil
}

// Parses the `<ctype>, transfer=<mode>` override notation. The transfer mode
// is mandatory.
func ParseTransferOverride(text string) (TransferOverride, error) {
	parts := strings.Split(text, ",")
	override := TransferOverride{CType: strings.TrimSpace(parts[0])}
	if override.CType == "" {
		return TransferOverride{}, fmt.Errorf("%q names no C type", text)
	}

	for _, part := range parts[1:] {
		key, value, found := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if !found || key != "transfer" {
			return TransferOverride{}, fmt.Errorf("%q: expected transfer=<mode>, found %q", text, strings.TrimSpace(part))
		}
		if override.Transfer != 0 {
			return TransferOverride{}, fmt.Errorf("%q: transfer is given twice", text)
		}

		mode, err := ParseTransferMode(strings.TrimSpace(value))
		if err != nil {
			return TransferOverride{}, fmt.Errorf("%q: %w", text, err)
		}
		override.Transfer = mode
	}

	if override.Transfer == 0 {
		return TransferOverride{}, fmt.Errorf("%q: missing transfer=<mode>", text)
	}
	return override, nil
}

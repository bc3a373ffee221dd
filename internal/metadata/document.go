package metadata

// The raw form of a descriptor file, as written in YAML or CUE.
type File struct {
	// Name of the Go package the bindings are generated into.
	Package string `yaml:"package" json:"package"`

	// Default symbol namespace, e.g. `calc` for `calc_calculator_add`.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	Types []TypeDocument `yaml:"types,omitempty" json:"types,omitempty"`
}

type TypeDocument struct {
	Name string `yaml:"name" json:"name"`

	// Registered type name. Defaults to the namespace in camel case followed
	// by the type name.
	CTypeName string `yaml:"c_type_name,omitempty" json:"c_type_name,omitempty"`

	// Symbol prefix. Defaults to `<namespace>_<snake_case name>`.
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	// One of object, boxed, shared, enum or flags. Required.
	Category string `yaml:"category" json:"category"`

	Methods []MethodDocument `yaml:"methods,omitempty" json:"methods,omitempty"`
}

type MethodDocument struct {
	Name string `yaml:"name" json:"name"`

	// Name of the Go method or function implementing it. Defaults to the
	// camel-cased name, prefixed with `New<Type>` for constructors.
	GoName string `yaml:"go_name,omitempty" json:"go_name,omitempty"`

	// Constructors take no self parameter.
	Constructor bool `yaml:"constructor,omitempty" json:"constructor,omitempty"`

	Params []ParamDocument `yaml:"params,omitempty" json:"params,omitempty"`

	Returns string `yaml:"returns,omitempty" json:"returns,omitempty"`

	// Override of the return value's C type, `<ctype>, transfer=<mode>`.
	CReturnType string `yaml:"c_return_type,omitempty" json:"c_return_type,omitempty"`

	Fallible bool `yaml:"fallible,omitempty" json:"fallible,omitempty"`
	Async    bool `yaml:"async,omitempty" json:"async,omitempty"`
}

type ParamDocument struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`

	// Override of the parameter's C type, `<ctype>, transfer=<mode>`, or
	// `winmd:<enum name>` for enumerations defined in Windows metadata.
	CType string `yaml:"c_type,omitempty" json:"c_type,omitempty"`
}

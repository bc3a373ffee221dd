package generation

import (
	"go/token"

	"ffigen/internal/metadata"
)

// Identifiers generated code declares itself. Parameters are renamed when
// they would collide with one of them.
var reservedNames = map[string]bool{
	"self":        true,
	"receiver":    true,
	"result":      true,
	"err":         true,
	"errorOut":    true,
	"cancellable": true,
	"callback":    true,
	"userData":    true,
	"sched":       true,
	"ready":       true,
	"source":      true,
	"ctx":         true,
	"C":           true,
	"ffirt":       true,
	"context":     true,
	"unsafe":      true,
}

func exportName(binding metadata.Binding, method metadata.Method) string {
	return binding.Prefix + "_" + method.Name
}

func finishName(binding metadata.Binding, method metadata.Method) string {
	return exportName(binding, method) + "_finish"
}

func syncName(binding metadata.Binding, method metadata.Method) string {
	return exportName(binding, method) + "_sync"
}

func typeAccessorName(binding metadata.Binding) string {
	return binding.Prefix + "_get_type"
}

// The package-level variable holding the binding's type identity.
func typeVariableName(binding metadata.Binding) string {
	return "ffigen" + binding.Name + "Type"
}

// The unexported function shared by the exported start and sync functions.
func startFunctionName(binding metadata.Binding, method metadata.Method) string {
	return "ffigen" + binding.Name + metadata.CamelCase(method.Name) + "Start"
}

// The name of a parameter as received from C.
func rawName(param metadata.Parameter) string {
	name := metadata.LowerCamelCase(param.Name)
	if token.IsKeyword(name) || reservedNames[name] {
		name += "Param"
	}
	return name
}

// The name of a parameter after conversion.
func localName(param metadata.Parameter) string {
	return rawName(param) + "Arg"
}

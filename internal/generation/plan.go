package generation

import (
	"fmt"
	"io"
	"strings"

	"ffigen/internal/marshal"
	"ffigen/internal/metadata"
)

// The resolved form of one binding: every parameter and return value mapped
// to its C-ABI representation. Code is emitted from plans only, so every
// descriptor error surfaces before any file is written.
type TypePlan struct {
	Binding  metadata.Binding
	Receiver marshal.Receiver
	Methods  []MethodPlan
}

type MethodPlan struct {
	Method metadata.Method
	Params []ParamPlan
	Return marshal.Resolution
}

type ParamPlan struct {
	Param      metadata.Parameter
	Resolution marshal.Resolution
}

// Whether the wrapper returns a value to C. Fallible void methods return a
// success flag so that the failure sentinel is observable.
func (m MethodPlan) hasResult() bool {
	return !m.Return.IsVoid() || m.Method.Fallible
}

// Whether the async start function reports a source object on completion.
// Methods report their receiver and constructors the object they built; both
// only for reference-counted objects.
func (m MethodPlan) reportsSource(t TypePlan) bool {
	if !t.Receiver.IsObject() {
		return false
	}
	if m.Method.IsConstructor() {
		return m.Return.Type.IsSelf(t.Binding)
	}
	return true
}

func planBinding(resolver *marshal.Resolver, binding metadata.Binding) (TypePlan, error) {
	plan := TypePlan{Binding: binding, Receiver: marshal.ForBinding(binding)}

	for _, method := range binding.Methods {
		methodPlan := MethodPlan{Method: method}
		for _, param := range method.Params {
			resolution, err := resolver.ResolveParam(param)
			if err != nil {
				return TypePlan{}, &metadata.DescriptorError{Type: binding.Name, Method: method.Name, Param: param.Name, Message: "cannot marshal parameter", Err: err}
			}
			methodPlan.Params = append(methodPlan.Params, ParamPlan{Param: param, Resolution: resolution})
		}

		resolution, err := resolver.ResolveReturn(method)
		if err != nil {
			return TypePlan{}, &metadata.DescriptorError{Type: binding.Name, Method: method.Name, Message: "cannot marshal return value", Err: err}
		}
		methodPlan.Return = resolution

		plan.Methods = append(plan.Methods, methodPlan)
	}

	return plan, nil
}

// The C-ABI surface of a descriptor, as printed by `ffigen plan`.
type PlanDocument struct {
	Package string         `json:"package"`
	Types   []TypeDocument `json:"types"`
}

type TypeDocument struct {
	Name      string   `json:"name"`
	CTypeName string   `json:"c_type_name"`
	Category  string   `json:"category"`
	Exports   []Export `json:"exports"`
}

type Export struct {
	Symbol    string        `json:"symbol"`
	Kind      string        `json:"kind"`
	Prototype string        `json:"prototype"`
	Params    []ExportValue `json:"params,omitempty"`
	Returns   *ExportValue  `json:"returns,omitempty"`
	Sentinel  string        `json:"sentinel,omitempty"`
}

type ExportValue struct {
	Name     string `json:"name,omitempty"`
	CType    string `json:"c_type"`
	Transfer string `json:"transfer"`
}

const (
	errorCType       = "FfigenError **"
	resultCType      = "FfigenAsyncResult *"
	cancellableCType = "FfigenCancellable *"
	callbackCType    = "FfigenReadyCallback"
	userDataCType    = "void *"
	successCType     = "int32_t"
)

func newDocument(packageName string, plans []TypePlan) PlanDocument {
	document := PlanDocument{Package: packageName, Types: make([]TypeDocument, 0, len(plans))}
	for _, plan := range plans {
		document.Types = append(document.Types, plan.document())
	}
	return document
}

func (t TypePlan) document() TypeDocument {
	document := TypeDocument{
		Name:      t.Binding.Name,
		CTypeName: t.Binding.CTypeName,
		Category:  t.Binding.Category.String(),
	}

	document.Exports = append(document.Exports, newExport(typeAccessorName(t.Binding), "type", nil, &ExportValue{CType: "FfigenType", Transfer: "primitive"}, ""))
	for _, method := range t.Methods {
		document.Exports = append(document.Exports, method.exports(t)...)
	}
	return document
}

func (m MethodPlan) exports(t TypePlan) []Export {
	var params []ExportValue
	if !m.Method.IsConstructor() {
		self := t.Receiver.Self()
		params = append(params, ExportValue{Name: "self", CType: self.ABI.CName, Transfer: self.TransferName()})
	}
	inputs := append([]ExportValue{}, params...)
	for _, param := range m.Params {
		inputs = append(inputs, ExportValue{Name: param.Param.Name, CType: param.Resolution.ABI.CName, Transfer: param.Resolution.TransferName()})
	}

	var returns *ExportValue
	sentinel := ""
	switch {
	case !m.Return.IsVoid():
		returns = &ExportValue{CType: m.Return.ABI.CName, Transfer: m.Return.TransferName()}
		sentinel = marshal.SentinelName(m.Return.Mode)
	case m.Method.Fallible || m.Method.Async:
		returns = &ExportValue{CType: successCType, Transfer: "primitive"}
		sentinel = "0"
	}

	errorOut := ExportValue{Name: "error", CType: errorCType, Transfer: "full"}
	if !m.Method.Async {
		kind := "method"
		if m.Method.IsConstructor() {
			kind = "constructor"
		}
		if m.Method.Fallible {
			return []Export{newExport(exportName(t.Binding, m.Method), kind, append(inputs, errorOut), returns, sentinel)}
		}
		return []Export{newExport(exportName(t.Binding, m.Method), kind, inputs, returns, "")}
	}

	cancellable := ExportValue{Name: "cancellable", CType: cancellableCType, Transfer: "none"}
	start := append(append([]ExportValue{}, inputs...),
		cancellable,
		ExportValue{Name: "callback", CType: callbackCType, Transfer: "primitive"},
		ExportValue{Name: "user_data", CType: userDataCType, Transfer: "none"},
	)
	finish := append(append([]ExportValue{}, params...),
		ExportValue{Name: "result", CType: resultCType, Transfer: "none"},
		errorOut,
	)
	blocking := append(append([]ExportValue{}, inputs...), cancellable, errorOut)

	return []Export{
		newExport(exportName(t.Binding, m.Method), "async-start", start, nil, ""),
		newExport(finishName(t.Binding, m.Method), "async-finish", finish, returns, sentinel),
		newExport(syncName(t.Binding, m.Method), "async-sync", blocking, returns, sentinel),
	}
}

func newExport(symbol string, kind string, params []ExportValue, returns *ExportValue, sentinel string) Export {
	return Export{
		Symbol:    symbol,
		Kind:      kind,
		Prototype: prototype(symbol, params, returns),
		Params:    params,
		Returns:   returns,
		Sentinel:  sentinel,
	}
}

func declaration(cType string, name string) string {
	if strings.HasSuffix(cType, "*") {
		return cType + name
	}
	return cType + " " + name
}

func prototype(symbol string, params []ExportValue, returns *ExportValue) string {
	declarations := make([]string, 0, len(params))
	for _, param := range params {
		declarations = append(declarations, declaration(param.CType, param.Name))
	}
	if len(declarations) == 0 {
		declarations = append(declarations, "void")
	}

	returnType := "void"
	if returns != nil {
		returnType = returns.CType
	}
	return declaration(returnType, symbol) + "(" + strings.Join(declarations, ", ") + ")"
}

// Prints the plan as one C prototype per line, grouped by type.
func WriteText(w io.Writer, document PlanDocument) error {
	if _, err := fmt.Fprintf(w, "package %s\n", document.Package); err != nil {
		return err
	}

	for _, t := range document.Types {
		if _, err := fmt.Fprintf(w, "\n%s (%s, %s)\n", t.Name, t.CTypeName, t.Category); err != nil {
			return err
		}
		for _, export := range t.Exports {
			line := fmt.Sprintf("  %s;", export.Prototype)
			if export.Sentinel != "" {
				line += fmt.Sprintf("  /* fails with %s */", export.Sentinel)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

package generation

import (
	"ffigen/internal/marshal"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
)

// The self parameter as received from C, absent for constructors.
func selfParams(plan TypePlan, method MethodPlan) []jen.Code {
	if method.Method.IsConstructor() {
		return nil
	}
	return []jen.Code{jen.Id("self").Add(plan.Receiver.ABI().Code())}
}

func rawParams(method MethodPlan) []jen.Code {
	params := make([]jen.Code, 0, len(method.Params))
	for _, param := range method.Params {
		params = append(params, jen.Id(rawName(param.Param)).Add(param.Resolution.ABI.Code()))
	}
	return params
}

func rawArgs(plan TypePlan, method MethodPlan) []jen.Code {
	var args []jen.Code
	if !method.Method.IsConstructor() {
		args = append(args, jen.Id("self"))
	}
	for _, param := range method.Params {
		args = append(args, jen.Id(rawName(param.Param)))
	}
	return args
}

// Declares the Go-side receiver and arguments converted from their raw C
// values.
func convertInputs(g *jen.Group, plan TypePlan, method MethodPlan) {
	if !method.Method.IsConstructor() {
		g.Id("receiver").Op(":=").Add(plan.Receiver.Self().FromC(jen.Id("self")))
	}
	for _, param := range method.Params {
		g.Id(localName(param.Param)).Op(":=").Add(param.Resolution.FromC(jen.Id(rawName(param.Param))))
	}
}

// The call of the implementing Go function or method. Asynchronous
// implementations take the task context first.
func implementationCall(method MethodPlan, withContext bool) *jen.Statement {
	args := make([]jen.Code, 0, len(method.Params)+1)
	if withContext {
		args = append(args, jen.Id("ctx"))
	}
	for _, param := range method.Params {
		args = append(args, jen.Id(localName(param.Param)))
	}

	if method.Method.IsConstructor() {
		return jen.Id(method.Method.GoName).Call(args...)
	}
	return jen.Id("receiver").Dot(method.Method.GoName).Call(args...)
}

// The C return type of a wrapper: the value's ABI type or, for fallible
// void methods, a success flag.
func returnType(method MethodPlan) jen.Code {
	if method.Return.IsVoid() {
		if method.Method.Fallible || method.Method.Async {
			return jen.Int32()
		}
		return jen.Null()
	}
	return method.Return.ABI.Code()
}

func errorOutParam() jen.Code {
	return jen.Id("errorOut").Op("*").Uintptr()
}

// Reports err through errorOut and returns the failure sentinel.
func failWith(errValue jen.Code, sentinel jen.Code) []jen.Code {
	return []jen.Code{
		jen.Qual(marshal.RuntimePath, "SetError").Call(jen.Id("errorOut"), errValue),
		jen.Return(sentinel),
	}
}

func (generator *Generator) generateSync(file *jen.File, plan TypePlan, method MethodPlan) {
	symbol := exportName(plan.Binding, method.Method)

	params := append(selfParams(plan, method), rawParams(method)...)
	if method.Method.Fallible {
		params = append(params, errorOutParam())
	}

	exportFunc(file, symbol).Params(params...).Add(returnType(method)).BlockFunc(func(g *jen.Group) {
		convertInputs(g, plan, method)
		call := implementationCall(method, false)

		switch {
		case method.Return.IsVoid() && !method.Method.Fallible:
			g.Add(call)

		case method.Return.IsVoid():
			g.If(jen.Err().Op(":=").Add(call), jen.Err().Op("!=").Nil()).Block(
				failWith(jen.Err(), jen.Lit(0))...,
			)
			g.Return(jen.Lit(1))

		case !method.Method.Fallible:
			g.Id("result").Op(":=").Add(call)
			g.Return(method.Return.ToC(jen.Id("result")))

		default:
			g.List(jen.Id("result"), jen.Err()).Op(":=").Add(call)
			g.If(jen.Err().Op("!=").Nil()).Block(
				failWith(jen.Err(), method.Return.ErrorValue())...,
			)
			g.Return(method.Return.ToC(jen.Id("result")))
		}
	}).Line()

	Logger().Debug("emitted wrapper",
		zap.String("symbol", symbol),
		zap.Bool("fallible", method.Method.Fallible),
		zap.String("returns", method.Return.TransferName()),
	)
}

package generation

import (
	"ffigen/internal/marshal"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
)

// The Go type an asynchronous task produces; void operations complete with
// an empty struct.
func payloadType(method MethodPlan) jen.Code {
	if method.Return.IsVoid() {
		return jen.Struct()
	}
	return method.Return.GoType
}

func (generator *Generator) generateAsync(file *jen.File, plan TypePlan, method MethodPlan) {
	generator.generateStart(file, plan, method)
	generator.generateStartExport(file, plan, method)
	generator.generateFinish(file, plan, method)
	generator.generateBlocking(file, plan, method)

	Logger().Debug("emitted asynchronous triad",
		zap.String("start", exportName(plan.Binding, method.Method)),
		zap.String("finish", finishName(plan.Binding, method.Method)),
		zap.String("sync", syncName(plan.Binding, method.Method)),
	)
}

func (generator *Generator) generateStart(file *jen.File, plan TypePlan, method MethodPlan) {
	params := append(
		[]jen.Code{jen.Id("sched").Op("*").Qual(marshal.RuntimePath, "Scheduler")},
		selfParams(plan, method)...,
	)
	params = append(params, rawParams(method)...)
	params = append(params,
		jen.Id("cancellable").Uintptr(),
		jen.Id("ready").Qual(marshal.RuntimePath, "ReadyFunc"),
	)

	payload := payloadType(method)
	file.Func().Id(startFunctionName(plan.Binding, method.Method)).Params(params...).BlockFunc(func(g *jen.Group) {
		convertInputs(g, plan, method)

		retainsSelf := method.reportsSource(plan) && !method.Method.IsConstructor()
		if retainsSelf {
			g.Id("source").Op(":=").Qual(marshal.RuntimePath, "Retain").Call(
				jen.Qual(marshal.RuntimePath, "Ptr").Call(jen.Id("self")),
			)
		}

		fields := jen.Dict{
			jen.Id("Tag"): jen.Lit(exportName(plan.Binding, method.Method)),
			jen.Id("Cancellable"): jen.Qual(marshal.RuntimePath, "Borrow").Types(jen.Op("*").Qual(marshal.RuntimePath, "Cancellable")).Call(
				jen.Qual(marshal.RuntimePath, "Ptr").Call(jen.Id("cancellable")),
			),
			jen.Id("Body"): jen.Func().Params(jen.Id("ctx").Qual("context", "Context")).Params(payload, jen.Error()).BlockFunc(func(body *jen.Group) {
				taskBody(body, method)
			}),
		}

		switch {
		case retainsSelf:
			fields[jen.Id("Source")] = jen.Func().Params(payload, jen.Error()).Qual(marshal.RuntimePath, "Ptr").Block(
				jen.Return(jen.Id("source")),
			)
		case method.reportsSource(plan):
			fields[jen.Id("Source")] = jen.Func().Params(jen.Id("value").Add(payload), jen.Err().Error()).Qual(marshal.RuntimePath, "Ptr").Block(
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Lit(0))),
				jen.Return(jen.Qual(marshal.RuntimePath, "ToOwned").Call(jen.Id("value"))),
			)
		}

		g.Qual(marshal.RuntimePath, "Spawn").Call(
			jen.Id("sched"),
			jen.Qual(marshal.RuntimePath, "Operation").Types(payload).Values(fields),
			jen.Id("ready"),
		)
	}).Line()
}

func taskBody(g *jen.Group, method MethodPlan) {
	call := implementationCall(method, true)

	switch {
	case method.Method.Fallible && method.Return.IsVoid():
		g.Return(jen.Struct().Values(), call)
	case method.Method.Fallible:
		g.Return(call)
	case method.Return.IsVoid():
		g.Add(call)
		g.Return(jen.Struct().Values(), jen.Nil())
	default:
		g.Return(call, jen.Nil())
	}
}

func (generator *Generator) generateStartExport(file *jen.File, plan TypePlan, method MethodPlan) {
	params := append(selfParams(plan, method), rawParams(method)...)
	params = append(params,
		jen.Id("cancellable").Uintptr(),
		jen.Id("callback").Qual("C", "FfigenReadyCallback"),
		jen.Id("userData").Qual("unsafe", "Pointer"),
	)

	args := append([]jen.Code{jen.Qual(marshal.RuntimePath, "Default").Call()}, rawArgs(plan, method)...)
	args = append(args,
		jen.Id("cancellable"),
		jen.Func().Params(jen.List(jen.Id("source"), jen.Id("result")).Qual(marshal.RuntimePath, "Ptr")).Block(
			jen.Qual("C", "ffigen_invoke_ready").Call(
				jen.Id("callback"),
				jen.Qual("C", "uintptr_t").Call(jen.Id("source")),
				jen.Qual("C", "uintptr_t").Call(jen.Id("result")),
				jen.Id("userData"),
			),
		),
	)

	exportFunc(file, exportName(plan.Binding, method.Method)).Params(params...).Block(
		jen.Id(startFunctionName(plan.Binding, method.Method)).Call(args...),
	).Line()
}

func (generator *Generator) generateFinish(file *jen.File, plan TypePlan, method MethodPlan) {
	params := append(selfParams(plan, method), jen.Id("result").Uintptr(), errorOutParam())
	tag := jen.Lit(exportName(plan.Binding, method.Method))
	handle := jen.Qual(marshal.RuntimePath, "Ptr").Call(jen.Id("result"))

	exportFunc(file, finishName(plan.Binding, method.Method)).Params(params...).Add(returnType(method)).BlockFunc(func(g *jen.Group) {
		if method.Return.IsVoid() {
			g.If(
				jen.List(jen.Id("_"), jen.Err()).Op(":=").Qual(marshal.RuntimePath, "Finish").Call(
					handle, tag, jen.Qual(marshal.RuntimePath, "Identity").Types(jen.Struct()),
				),
				jen.Err().Op("!=").Nil(),
			).Block(failWith(jen.Err(), jen.Lit(0))...)
			g.Return(jen.Lit(1))
			return
		}

		convert := jen.Func().Params(jen.Id("v").Add(method.Return.GoType)).Add(method.Return.ABI.Code()).Block(
			jen.Return(method.Return.ToC(jen.Id("v"))),
		)
		g.List(jen.Id("value"), jen.Err()).Op(":=").Qual(marshal.RuntimePath, "Finish").Call(handle, tag, convert)
		g.If(jen.Err().Op("!=").Nil()).Block(
			failWith(jen.Err(), method.Return.ErrorValue())...,
		)
		g.Return(jen.Id("value"))
	}).Line()
}

func (generator *Generator) generateBlocking(file *jen.File, plan TypePlan, method MethodPlan) {
	params := append(selfParams(plan, method), rawParams(method)...)
	params = append(params, jen.Id("cancellable").Uintptr(), errorOutParam())

	startArgs := append([]jen.Code{jen.Id("sched")}, rawArgs(plan, method)...)
	startArgs = append(startArgs, jen.Id("cancellable"), jen.Id("ready"))

	finishArgs := []jen.Code{}
	if !method.Method.IsConstructor() {
		finishArgs = append(finishArgs, jen.Id("self"))
	}
	finishArgs = append(finishArgs, jen.Uintptr().Call(jen.Id("result")), jen.Id("errorOut"))

	exportFunc(file, syncName(plan.Binding, method.Method)).Params(params...).Add(returnType(method)).Block(
		jen.Id("result").Op(":=").Qual(marshal.RuntimePath, "RunSync").Call(
			jen.Func().Params(
				jen.Id("sched").Op("*").Qual(marshal.RuntimePath, "Scheduler"),
				jen.Id("ready").Qual(marshal.RuntimePath, "ReadyFunc"),
			).Block(
				jen.Id(startFunctionName(plan.Binding, method.Method)).Call(startArgs...),
			),
		),
		jen.Return(jen.Id(finishName(plan.Binding, method.Method)).Call(finishArgs...)),
	).Line()
}

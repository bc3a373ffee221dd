package generation

import (
	"ffigen/internal/marshal"

	"github.com/dave/jennifer/jen"
)

func rt(name string) *jen.Statement {
	return jen.Qual(marshal.RuntimePath, name)
}

func handleOf(name string) *jen.Statement {
	return rt("Ptr").Call(jen.Id(name))
}

func borrowed(typeName string, name string) *jen.Statement {
	return rt("Borrow").Types(jen.Op("*").Add(rt(typeName))).Call(handleOf(name))
}

// Emits the helpers C callers need to manage what the wrappers hand out:
// strings, handles, errors, cancellation tokens and the default scheduler.
func (generator *Generator) generateRuntime(file *jen.File) {
	p := func(name string) jen.Code { return jen.Id(name).Uintptr() }

	exportFunc(file, "ffigen_free").Params(p("p")).Block(
		rt("FreeString").Call(handleOf("p")),
	).Line()
	exportFunc(file, "ffigen_strv_free").Params(p("p")).Block(
		rt("FreeStrv").Call(handleOf("p")),
	).Line()

	exportFunc(file, "ffigen_object_ref").Params(p("p")).Uintptr().Block(
		jen.Return(jen.Uintptr().Call(rt("Retain").Call(handleOf("p")))),
	).Line()
	exportFunc(file, "ffigen_object_unref").Params(p("p")).Block(
		rt("Release").Call(handleOf("p")),
	).Line()

	exportFunc(file, "ffigen_error_domain").Params(p("p")).Uintptr().Block(
		jen.Return(jen.Uintptr().Call(rt("StaticString").Call(borrowed("Error", "p").Dot("Domain")))),
	).Line()
	exportFunc(file, "ffigen_error_code").Params(p("p")).Int32().Block(
		jen.Return(borrowed("Error", "p").Dot("Code")),
	).Line()
	exportFunc(file, "ffigen_error_message").Params(p("p")).Uintptr().Block(
		jen.Return(jen.Uintptr().Call(rt("NewString").Call(borrowed("Error", "p").Dot("Message")))),
	).Line()
	exportFunc(file, "ffigen_error_free").Params(p("p")).Block(
		rt("Release").Call(handleOf("p")),
	).Line()

	exportFunc(file, "ffigen_cancellable_new").Params().Uintptr().Block(
		jen.Return(jen.Uintptr().Call(rt("ToOwned").Call(rt("NewCancellable").Call()))),
	).Line()
	exportFunc(file, "ffigen_cancellable_cancel").Params(p("p")).Block(
		borrowed("Cancellable", "p").Dot("Cancel").Call(),
	).Line()

	exportFunc(file, "ffigen_main_context_iteration").Params(jen.Id("mayBlock").Int32()).Int32().Block(
		jen.Return(rt("ToBoolean").Call(
			rt("Default").Call().Dot("Iteration").Call(rt("FromBoolean").Call(jen.Id("mayBlock"))),
		)),
	).Line()
	exportFunc(file, "ffigen_main_context_pending").Params().Int32().Block(
		jen.Return(rt("ToBoolean").Call(rt("Default").Call().Dot("Pending").Call())),
	).Line()

	exportFunc(file, "ffigen_bytes_new").Params(
		jen.Id("data").Qual("unsafe", "Pointer"),
		jen.Id("size").Qual("C", "size_t"),
	).Uintptr().Block(
		jen.Return(jen.Uintptr().Call(rt("NewBytes").Call(
			jen.Qual("C", "GoBytes").Call(jen.Id("data"), jen.Qual("C", "int").Call(jen.Id("size"))),
		))),
	).Line()
	exportFunc(file, "ffigen_bytes_get_size").Params(p("p")).Qual("C", "size_t").Block(
		jen.Return(jen.Qual("C", "size_t").Call(jen.Len(rt("PeekBytes").Call(handleOf("p"))))),
	).Line()
	exportFunc(file, "ffigen_bytes_copy").Params(
		p("p"),
		jen.Id("out").Qual("unsafe", "Pointer"),
		jen.Id("size").Qual("C", "size_t"),
	).Qual("C", "size_t").Block(
		jen.If(jen.Id("out").Op("==").Nil()).Block(jen.Return(jen.Lit(0))),
		jen.Id("target").Op(":=").Qual("unsafe", "Slice").Call(
			jen.Parens(jen.Op("*").Byte()).Call(jen.Id("out")),
			jen.Int().Call(jen.Id("size")),
		),
		jen.Return(jen.Qual("C", "size_t").Call(jen.Copy(jen.Id("target"), rt("PeekBytes").Call(handleOf("p"))))),
	).Line()
	exportFunc(file, "ffigen_bytes_unref").Params(p("p")).Block(
		rt("Release").Call(handleOf("p")),
	).Line()

	exportFunc(file, "ffigen_type_name").Params(jen.Id("t").Qual("C", "FfigenType")).Uintptr().Block(
		jen.Return(jen.Uintptr().Call(rt("StaticString").Call(rt("TypeName").Call(rt("GType").Call(jen.Id("t")))))),
	).Line()
}

package generation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ffigen/internal/marshal"
	"ffigen/internal/metadata"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
)

const (
	headerName        = "ffigen.h"
	runtimeSourceName = "ffigen_runtime.c"
)

// Every file with export directives has its preamble copied into the same
// C translation unit, so preambles only include the guarded header.
const cgoPreamble = `#include "` + headerName + `"`

const header = `/* Code generated by ffigen. DO NOT EDIT. */

#ifndef FFIGEN_H
#define FFIGEN_H

#include <stddef.h>
#include <stdint.h>

typedef uintptr_t FfigenType;
typedef void (*FfigenReadyCallback)(uintptr_t source, uintptr_t result, void *user_data);

void ffigen_invoke_ready(FfigenReadyCallback callback, uintptr_t source, uintptr_t result, void *user_data);

#endif
`

const runtimeSource = `/* Code generated by ffigen. DO NOT EDIT. */

#include "` + headerName + `"

void ffigen_invoke_ready(FfigenReadyCallback callback, uintptr_t source, uintptr_t result, void *user_data) {
	if (callback != NULL) {
		callback(source, result, user_data);
	}
}
`

type Generator struct {
	Bindings    []metadata.Binding
	PackageName string
	OutputPath  string
}

// One file of generated output, named relative to the output directory.
// Go files are rendered from File, C files are written from Source.
type GeneratedFile struct {
	Name   string
	File   *jen.File
	Source string
}

func (generated GeneratedFile) Save(path string) error {
	if generated.File != nil {
		return generated.File.Save(path)
	}
	return os.WriteFile(path, []byte(generated.Source), 0o644)
}

func NewGenerator(packageName string, outputPath string) Generator {
	return Generator{
		make([]metadata.Binding, 0),
		packageName,
		outputPath,
	}
}

func (generator *Generator) RegisterBinding(element metadata.Binding) {
	generator.Bindings = append(generator.Bindings, element)
}

func (generator *Generator) RegisterDescriptor(descriptor *metadata.Descriptor) {
	for _, binding := range descriptor.Bindings {
		generator.RegisterBinding(binding)
	}
}

// Resolves every method of every registered binding. Any type without a
// marshaling rule fails the whole run.
func (generator *Generator) Plan() ([]TypePlan, error) {
	resolver := marshal.NewResolver(generator.Bindings)

	plans := make([]TypePlan, 0, len(generator.Bindings))
	for _, binding := range generator.Bindings {
		plan, err := planBinding(resolver, binding)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Describes the exported C surface without generating code.
func (generator *Generator) Document() (PlanDocument, error) {
	plans, err := generator.Plan()
	if err != nil {
		return PlanDocument{}, err
	}
	return newDocument(generator.PackageName, plans), nil
}

func (generator *Generator) Build() ([]GeneratedFile, error) {
	plans, err := generator.Plan()
	if err != nil {
		return nil, err
	}

	bindings := generator.newFile()
	for _, plan := range plans {
		generator.generateBinding(bindings, plan)
	}

	runtime := generator.newFile()
	generator.generateRuntime(runtime)

	return []GeneratedFile{
		{Name: fmt.Sprintf("%s_bindings.go", generator.PackageName), File: bindings},
		{Name: "ffigen_runtime.go", File: runtime},
		{Name: headerName, Source: header},
		{Name: runtimeSourceName, Source: runtimeSource},
	}, nil
}

// Writes the generated files into path and returns their paths. Nothing is
// written when planning fails.
func (generator *Generator) Generate(path string) ([]string, error) {
	files, err := generator.Build()
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(path, os.ModePerm)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, generated := range files {
		target := filepath.Join(path, generated.Name)
		if err := generated.Save(target); err != nil {
			return written, fmt.Errorf("writing %s: %w", target, err)
		}
		Logger().Info("wrote bindings", zap.String("file", target))
		written = append(written, target)
	}
	return written, nil
}

func (generator *Generator) newFile() *jen.File {
	file := jen.NewFile(generator.PackageName)
	file.HeaderComment("Code generated by ffigen. DO NOT EDIT.")
	file.CgoPreamble(cgoPreamble)
	file.ImportName(marshal.RuntimePath, "ffirt")
	return file
}

func (generator *Generator) generateBinding(file *jen.File, plan TypePlan) {
	generator.generateTypeAccessor(file, plan)

	for _, method := range plan.Methods {
		if method.Method.Async {
			generator.generateAsync(file, plan, method)
		} else {
			generator.generateSync(file, plan, method)
		}
	}
}

func (generator *Generator) generateTypeAccessor(file *jen.File, plan TypePlan) {
	variable := typeVariableName(plan.Binding)
	symbol := typeAccessorName(plan.Binding)

	file.Var().Id(variable).Op("=").Qual(marshal.RuntimePath, "RegisterType").Call(jen.Lit(plan.Binding.CTypeName))
	file.Line()
	exportFunc(file, symbol).Params().Qual("C", "FfigenType").Block(
		jen.Return(jen.Qual("C", "FfigenType").Call(jen.Id(variable))),
	).Line()

	Logger().Debug("emitted type accessor", zap.String("symbol", symbol))
}

// Starts an exported function declaration with its cgo export directive.
func exportFunc(file *jen.File, symbol string) *jen.Statement {
	file.Comment("//export " + symbol)
	return file.Func().Id(symbol)
}

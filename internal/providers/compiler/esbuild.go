package compiler

import (
	"context"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"componentlab/internal/domain"
)

// Compiler transforms generated component source into runnable JavaScript.
type Compiler interface {
	Compile(ctx context.Context, source string) (string, error)
}

// ESBuildCompiler runs an in-process esbuild transform. Output is a CommonJS
// module that expects React as a global and require("react").
type ESBuildCompiler struct {
	target api.Target
}

func NewESBuildCompiler() *ESBuildCompiler {
	return &ESBuildCompiler{target: api.ES2020}
}

func (c *ESBuildCompiler) Compile(ctx context.Context, source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", &domain.CompilationError{Msg: "source is empty"}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result := api.Transform(source, api.TransformOptions{
		Loader:      api.LoaderTSX,
		Format:      api.FormatCommonJS,
		Target:      c.target,
		JSX:         api.JSXTransform,
		JSXFactory:  "React.createElement",
		JSXFragment: "React.Fragment",
		Sourcefile:  "component.jsx",
		LogLevel:    api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msgs := api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return "", &domain.CompilationError{Msg: strings.TrimSpace(strings.Join(msgs, "\n"))}
	}
	out := strings.TrimSpace(string(result.Code))
	if out == "" {
		return "", &domain.CompilationError{Msg: "transform produced no output"}
	}
	return out, nil
}

var _ Compiler = (*ESBuildCompiler)(nil)

package functions

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/watzon/alyx-executor/internal/sdk"
)

var jsonValueType = reflect.TypeOf(&structpb.Value{})

// ExpressionCompiler turns CEL expressions from manifests into handlers.
// Expressions see three variables: input, auth and env.
type ExpressionCompiler struct {
	env *cel.Env
}

// NewExpressionCompiler creates the CEL environment shared by all functions.
func NewExpressionCompiler() (*ExpressionCompiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("auth", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("env", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}
	return &ExpressionCompiler{env: env}, nil
}

// Compile checks expr and returns a handler that evaluates it.
func (c *ExpressionCompiler) Compile(expr string) (sdk.Handler, error) {
	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling expression: %w", issues.Err())
	}

	program, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}

	return func(ctx context.Context, input map[string]any, fc *sdk.Context) (any, error) {
		out, _, err := program.ContextEval(ctx, map[string]any{
			"input": input,
			"auth":  authVars(fc.Auth),
			"env":   fc.Env,
		})
		if err != nil {
			return nil, fmt.Errorf("evaluating expression: %w", err)
		}

		native, err := out.ConvertToNative(jsonValueType)
		if err != nil {
			return nil, fmt.Errorf("converting expression result: %w", err)
		}
		return native.(*structpb.Value).AsInterface(), nil
	}, nil
}

func authVars(a *sdk.AuthContext) map[string]any {
	if a == nil {
		return map[string]any{}
	}
	vars := map[string]any{
		"id":       a.ID,
		"email":    a.Email,
		"role":     a.Role,
		"verified": a.Verified,
	}
	if a.Metadata != nil {
		vars["metadata"] = a.Metadata
	}
	return vars
}

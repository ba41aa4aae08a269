// internal/service/inventory/infrastructure/rule/cel_policy.go
package rule

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"depot/internal/service/inventory/domain/port"
)

// CELPolicyAdapter 是 port.ReservationPolicy 的 CEL 实现。
// 准入规则是一条返回 bool 的 CEL 表达式，例如
// "quantity <= 100 && category != 'restricted'"；
// 表达式在构造时编译一次，之后每次预约只做求值。
type CELPolicyAdapter struct {
	program cel.Program
}

// NewCELPolicyAdapter 编译表达式并创建策略适配器。
// expression 为空时返回 (nil, nil)，调用方据此跳过策略检查。
func NewCELPolicyAdapter(expression string) (*CELPolicyAdapter, error) {
	if expression == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("sku", cel.StringType),
		cel.Variable("category", cel.StringType),
		cel.Variable("brand", cel.StringType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("customer_id", cel.StringType),
		cel.Variable("available", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cel environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid policy expression %q: %w", expression, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("policy expression %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build cel program: %w", err)
	}
	return &CELPolicyAdapter{program: program}, nil
}

// Allow 用当前预约事实求值准入表达式。
func (a *CELPolicyAdapter) Allow(ctx context.Context, fact port.ReservationFact) (bool, error) {
	out, _, err := a.program.ContextEval(ctx, map[string]interface{}{
		"sku":         fact.SKU,
		"category":    fact.Category,
		"brand":       fact.Brand,
		"quantity":    fact.Quantity,
		"customer_id": fact.CustomerID,
		"available":   fact.Available,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy returned non-bool result %T", out.Value())
	}
	return allowed, nil
}

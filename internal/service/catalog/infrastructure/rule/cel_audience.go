// internal/service/catalog/infrastructure/rule/cel_audience.go
package rule

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/service/catalog/domain"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// CELAudienceEvaluator 是 domain.AudienceEvaluator 的 CEL 实现。
// 表达式可以引用 order_count、is_member、subtotal、user_id，必须返回 bool，例如:
//
//	order_count >= 3 && !is_member
type CELAudienceEvaluator struct {
	env      *cel.Env
	programs sync.Map // expr -> cel.Program
}

func NewCELAudienceEvaluator() (*CELAudienceEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("order_count", cel.IntType),
		cel.Variable("is_member", cel.BoolType),
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("user_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &CELAudienceEvaluator{env: env}, nil
}

func (e *CELAudienceEvaluator) compile(expr string) (cel.Program, error) {
	if p, ok := e.programs.Load(expr); ok {
		return p.(cel.Program), nil
	}
	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, apperr.Validation("invalid_audience", "audience rule does not compile: "+iss.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperr.Validation("invalid_audience", "audience rule must evaluate to a boolean")
	}
	prg, err := e.env.Program(ast, cel.CostLimit(10_000))
	if err != nil {
		return nil, fmt.Errorf("build cel program: %w", err)
	}
	e.programs.Store(expr, prg)
	return prg, nil
}

// Validate 在创建券时检查表达式
func (e *CELAudienceEvaluator) Validate(expr string) error {
	_, err := e.compile(expr)
	return err
}

// Matches 执行表达式。空表达式匹配所有人
func (e *CELAudienceEvaluator) Matches(expr string, fact domain.AudienceFact) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := e.compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"order_count": fact.OrderCount,
		"is_member":   fact.IsMember,
		"subtotal":    fact.Subtotal,
		"user_id":     fact.UserID,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate audience rule: %w", err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("audience rule returned %T", out.Value())
	}
	return matched, nil
}

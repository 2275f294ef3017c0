// Package dsl 提供基于 CEL (Common Expression Language) 的 Label/Item 规则表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 3.5 / item.features.content > 0.2
//   - 元信息：item.meta.author == "Jane Austen"
//   - 标签：label.recall_source == "catalog"
//   - 存在性："genre" in item.meta
//   - 上下文：rctx.user_id == "u1" / rctx.labels.user_segment == "cold_start"
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Eval 对单个 item 求值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式，空表达式视为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	item := map[string]any{}
	if it != nil {
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
		features := make(map[string]any, len(it.Features))
		for k, v := range it.Features {
			features[k] = v
		}
		item = map[string]any{
			"id":       it.ID,
			"score":    it.Score,
			"features": features,
			"meta":     it.Meta,
		}
	}

	ctxInput := map[string]any{}
	if rctx != nil {
		ctxLabels := make(map[string]any, len(rctx.Labels))
		for k, v := range rctx.Labels {
			ctxLabels[k] = v.Value
		}
		ctxInput = map[string]any{
			"user_id": rctx.UserID,
			"top_n":   rctx.TopN,
			"params":  rctx.Params,
			"labels":  ctxLabels,
		}
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  ctxInput,
	}
}

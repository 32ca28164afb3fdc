package mir

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Dump renders a Mir as YAML for gen_test.go's round-trip test and the CLI's
// -mir flag: every interface-typed field (Stmt, Terminator, IType) is
// flattened to a tagged map or its String() rendering, so the output
// is stable, diffable text rather than Go syntax.
func Dump(m *Mir) (string, error) {
	doc := map[string]any{
		"entrypoint": int(m.Entrypoint),
		"cfgs":       dumpCfgs(m.Cfgs),
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func dumpCfgs(cfgs []*Cfg) []map[string]any {
	out := make([]map[string]any, len(cfgs))
	for i, c := range cfgs {
		out[i] = dumpCfg(c)
	}
	return out
}

func dumpCfg(c *Cfg) map[string]any {
	vars := make([]map[string]any, len(c.Vars))
	for i, v := range c.Vars {
		vars[i] = map[string]any{"ty": v.Ty.String(), "scope": int(v.Scope)}
	}
	scopes := make([]map[string]any, len(c.Scopes))
	for i, s := range c.Scopes {
		scopes[i] = map[string]any{"super": int(s.Super)}
	}
	blocks := make([]map[string]any, len(c.Blocks))
	for i, b := range c.Blocks {
		blocks[i] = dumpBlock(b)
	}
	params := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		params[i] = p.String()
	}
	captured := make([]string, len(c.Captured))
	for i, cp := range c.Captured {
		captured[i] = cp.String()
	}
	return map[string]any{
		"parameters": params,
		"captured":   captured,
		"output":     c.Output.String(),
		"vars":       vars,
		"scopes":     scopes,
		"blocks":     blocks,
	}
}

func dumpBlock(b *Block) map[string]any {
	stmts := make([]map[string]any, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = map[string]any{"var": int(s.Var), "stmt": dumpStmt(s.Stmt)}
	}
	return map[string]any{
		"stmts":      stmts,
		"terminator": dumpTerminator(b.Terminator),
	}
}

func dumpStmt(s Stmt) map[string]any {
	switch v := s.(type) {
	case Const:
		return map[string]any{"const": v.Value.String()}
	case Product:
		return map[string]any{"product": varInts(v.Elems)}
	case Vector:
		return map[string]any{"vector": varInts(v.Elems)}
	case Map:
		entries := make([]map[string]int, len(v.Entries))
		for i, e := range v.Entries {
			entries[i] = map[string]int{"key": int(e.Key), "value": int(e.Value)}
		}
		return map[string]any{"map": entries}
	case Fn:
		handlers := make([]map[string]any, len(v.Closure.Handlers))
		for i, h := range v.Closure.Handlers {
			handlers[i] = map[string]any{
				"effect": h.Effect.String(),
				"var":    int(h.Var),
			}
		}
		return map[string]any{"fn": map[string]any{
			"cfg":      int(v.Closure.Cfg),
			"captured": varInts(v.Closure.Captured),
			"handlers": handlers,
		}}
	case Perform:
		return map[string]any{"perform": int(v.Input)}
	case Apply:
		return map[string]any{"apply": map[string]any{
			"function":  int(v.Function),
			"arguments": varInts(v.Arguments),
		}}
	case Cast:
		return map[string]any{"cast": int(v.Var)}
	case Parameter:
		return map[string]any{"parameter": true}
	case Recursion:
		return map[string]any{"recursion": true}
	case Link:
		return map[string]any{"link": fmt.Sprintf("%x", v.Name.UUID)}
	default:
		return map[string]any{"unknown": fmt.Sprintf("%T", s)}
	}
}

func dumpTerminator(t Terminator) map[string]any {
	switch v := t.(type) {
	case Return:
		return map[string]any{"return": int(v.Var)}
	case Goto:
		return map[string]any{"goto": int(v.Block)}
	case Match:
		cases := make([]map[string]any, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = map[string]any{"ty": c.Ty.String(), "next": int(c.Next)}
		}
		return map[string]any{"match": map[string]any{
			"var":   int(v.Var),
			"cases": cases,
		}}
	default:
		return map[string]any{"unknown": fmt.Sprintf("%T", t)}
	}
}

func varInts(vs []VarId) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = int(v)
	}
	return out
}

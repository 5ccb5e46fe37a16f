package script

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

var assignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=(.*)$`)

// Expr evaluates expr-lang code. Each non-empty line is either
// "name = expression" or a bare expression, which is assigned to "result".
// Later lines see the values assigned by earlier ones.
type Expr struct{}

func (Expr) Evaluate(ctx context.Context, code string, ns *Namespace) (string, error) {
	env := make(map[string]any, ns.Len())
	for _, name := range ns.Names() {
		v, _ := ns.Get(name)
		env[name] = Normalize(v)
	}

	for i, line := range strings.Split(code, "\n") {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		target, source := "result", line
		if m := assignRe.FindStringSubmatch(line); m != nil && !strings.HasPrefix(m[2], "=") {
			target, source = m[1], strings.TrimSpace(m[2])
		}

		program, err := expr.Compile(source, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("line %d: compile %q: %w", i+1, source, err)
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("line %d: evaluate %q: %w", i+1, source, err)
		}
		env[target] = out
		ns.Set(target, out)
	}
	return "", nil
}

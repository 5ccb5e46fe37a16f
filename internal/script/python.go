package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/soochol/pyexec/internal/graph"
)

// maxOutputSize caps captured stdout and stderr.
const maxOutputSize = 100 * 1024 // 100 KB

// pythonRunner loads the namespace, executes the code in it and writes the
// resulting non-callable globals back as ordered [name, value] pairs.
const pythonRunner = `
import json, sys, types
with open(sys.argv[1]) as f:
    ns = json.load(f)
with open(sys.argv[2]) as f:
    code = f.read()
exec(compile(code, "<pycode>", "exec"), ns)
out = []
for k, v in ns.items():
    if k == "__builtins__" or callable(v) or isinstance(v, types.ModuleType):
        continue
    try:
        json.dumps(v)
        out.append([k, v])
    except (TypeError, ValueError):
        out.append([k, repr(v)])
with open(sys.argv[3], "w") as f:
    json.dump(out, f)
`

// PythonError is a failure raised by the external interpreter.
type PythonError struct {
	Msg       string
	Traceback string
	ExitCode  int
}

func (e *PythonError) Error() string     { return e.Msg }
func (e *PythonError) Backtrace() string { return e.Traceback }

// Python runs code with an external CPython interpreter. Only
// JSON-serializable namespace entries cross the process boundary, so "gs"
// and "graph" are not available to this language.
type Python struct {
	Binary  string
	Timeout time.Duration
}

func (p *Python) Evaluate(ctx context.Context, code string, ns *Namespace) (string, error) {
	binary := p.Binary
	if binary == "" {
		binary = "python3"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	dir, err := os.MkdirTemp("", "pyexec-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	nsPath := filepath.Join(dir, "namespace.json")
	codePath := filepath.Join(dir, "code.py")
	outPath := filepath.Join(dir, "out.json")

	data, err := json.Marshal(serializable(ns))
	if err != nil {
		return "", fmt.Errorf("failed to encode namespace: %w", err)
	}
	if err := os.WriteFile(nsPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write namespace: %w", err)
	}
	if err := os.WriteFile(codePath, []byte(code), 0o600); err != nil {
		return "", fmt.Errorf("failed to write code: %w", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, binary, "-c", pythonRunner, nsPath, codePath, outPath)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := truncateOutput(stdout.String())
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			tb := stderr.String()
			return out, &PythonError{Msg: lastLine(tb), Traceback: truncateOutput(tb), ExitCode: exitErr.ExitCode()}
		}
		return out, fmt.Errorf("failed to execute python: %w", runErr)
	}

	result, err := os.ReadFile(outPath)
	if err != nil {
		return out, fmt.Errorf("failed to read python result: %w", err)
	}
	var pairs [][2]any
	dec := json.NewDecoder(bytes.NewReader(result))
	dec.UseNumber()
	if err := dec.Decode(&pairs); err != nil {
		return out, fmt.Errorf("failed to decode python result: %w", err)
	}
	for _, pair := range pairs {
		name, ok := pair[0].(string)
		if !ok {
			continue
		}
		ns.Set(name, Normalize(pair[1]))
	}
	return out, nil
}

// serializable returns the namespace entries that can be sent as JSON.
func serializable(ns *Namespace) map[string]any {
	out := make(map[string]any, ns.Len())
	for _, name := range ns.Names() {
		v, _ := ns.Get(name)
		switch v.(type) {
		case *Globals, *graph.Builder, *graph.Node, Function:
			continue
		}
		if IsCallable(v) {
			continue
		}
		if _, err := json.Marshal(v); err != nil {
			continue
		}
		out[name] = v
	}
	return out
}

func truncateOutput(s string) string {
	if len(s) > maxOutputSize {
		return s[:maxOutputSize] + "\n... [truncated at 100KB]"
	}
	return s
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return "python exited with an error"
}

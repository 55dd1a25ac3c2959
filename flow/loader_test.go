package flow

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/flowgraph/errors"
)

// --- helpers ---

func writeSpec(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func intPtr(v int) *int { return &v }

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("add", add))
	require.NoError(t, r.RegisterFunc("mul", mul))
	require.NoError(t, r.RegisterFunc("wrap", func(e string) map[string]any { return map[string]any{"email": e} }))
	require.NoError(t, r.RegisterFunc("count", func(xs []any) int { return len(xs) }))
	require.NoError(t, r.RegisterFunc("echo", func(v any) any { return v }))
	return r
}

// --- YAML args ---

func TestParseSpec_Args(t *testing.T) {
	s, err := ParseSpec([]byte(`
name: args
nodes:
  - name: x
    func: echo
    args:
      - a
      - a.field
      - [b, c.d]
      - 42
      - true
      - null
      - {literal: "plain text"}
      - {literal: [1, 2]}
`))
	require.NoError(t, err)
	require.Len(t, s.Nodes, 1)

	want := []Arg{
		Ref("a"),
		Attr("a", "field"),
		List(Ref("b"), Attr("c", "d")),
		Literal(42),
		Literal(true),
		Literal(nil),
		Literal("plain text"),
		Literal([]any{1, 2}),
	}
	got := s.Nodes[0].Args
	require.Len(t, got, len(want))
	for i := range want {
		if !want[i].Equal(got[i]) {
			t.Fatalf("arg %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestParseSpec_InvalidArgs(t *testing.T) {
	for _, doc := range []string{
		"name: x\nnodes:\n  - name: n\n    func: f\n    args: a\n",
		"name: x\nnodes:\n  - name: n\n    func: f\n    args: [{other: 1}]\n",
		"name: x\nnodes:\n  - name: n\n    func: f\n    args: [a.b.c]\n",
	} {
		_, err := ParseSpec([]byte(doc))
		require.Error(t, err, doc)
	}
}

// --- loading ---

func TestLoadSpec_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "calc.yaml", `
name: calc
inputs: [a, b]
constants:
  - name: c
    value: 3
nodes:
  - name: one
    func: add
    args: [a, b]
  - name: two
    func: mul
    args: [one, c]
`)

	s, err := LoadSpec("calc", path)
	require.NoError(t, err)
	require.Equal(t, "calc", s.Name)
	require.Len(t, s.Nodes, 2)
	require.Equal(t, []ConstSpec{{Name: "c", Value: 3}}, s.Constants)

	_, err = LoadSpec("other", path)
	require.True(t, errors.IsCode(err, errors.ErrCodeNotFound), "got %v", err)
}

func TestFileSpecLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "top.yml", "name: top\nnodes: []\n")
	writeSpec(t, dir, "nested/deep.yaml", "name: deep\nnodes: []\n")

	loader := NewFileSpecLoader(dir)
	for _, name := range []string{"top", "deep"} {
		s, err := loader.Load(name)
		require.NoError(t, err)
		require.Equal(t, name, s.Name)
	}

	_, err := loader.Load("missing")
	var nf *NotFoundError
	require.True(t, stderrors.As(err, &nf), "got %v", err)
}

func TestFileSpecLoader_NameMismatch(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "alpha.yaml", "name: beta\nnodes: []\n")
	writeSpec(t, dir, "nested/gamma.yaml", "name: delta\nnodes: []\n")

	loader := NewFileSpecLoader(dir)
	for _, name := range []string{"alpha", "gamma"} {
		_, err := loader.Load(name)
		require.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput), "%s: got %v", name, err)
	}
}

func TestFileSpecLoader_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "broken.yaml", "name: [unterminated\n")

	_, err := NewFileSpecLoader(dir).Load("broken")
	require.Error(t, err)
	require.False(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestChainLoaders(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeSpec(t, first, "a.yaml", "name: a\nnodes: []\n")
	writeSpec(t, second, "b.yaml", "name: b\nnodes: []\n")
	writeSpec(t, second, "broken.yaml", "name: [unterminated\n")

	chain := ChainLoaders(NewFileSpecLoader(first), NewFileSpecLoader(second))
	for _, name := range []string{"a", "b"} {
		s, err := chain.Load(name)
		require.NoError(t, err)
		require.Equal(t, name, s.Name)
	}

	_, err := chain.Load("missing")
	require.True(t, errors.IsCode(err, errors.ErrCodeNotFound), "got %v", err)

	_, err = chain.Load("broken")
	require.Error(t, err)
	require.False(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

// --- Resolve ---

func TestResolve_Executes(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "calc.yaml", `
name: calc
inputs: [a, b]
constants:
  - name: c
    value: 3
nodes:
  - name: one
    func: add
    args: [a, b]
  - name: two
    func: mul
    args: [one, c]
`)
	s, err := LoadSpec("calc", path)
	require.NoError(t, err)

	def, err := Resolve(s, testRegistry(t), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"two"}, def.Outputs())

	inst, err := def.New(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	res, err := inst.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, res["two"])
}

func TestResolve_Extends(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "base.yaml", `
name: base
inputs: [email]
nodes:
  - name: auth
    func: wrap
    args: [email]
`)
	writeSpec(t, dir, "left.yaml", "name: left\nextends: [base]\nnodes:\n  - name: l\n    func: echo\n    args: [auth.email]\n")
	writeSpec(t, dir, "right.yaml", "name: right\nextends: [base]\nnodes:\n  - name: r\n    func: echo\n    args: [auth]\n")

	loader := NewFileSpecLoader(dir)
	top := &Spec{
		Name:    "top",
		Extends: []string{"left", "right"},
		Options: &OptionsSpec{CacheDepth: intPtr(4)},
		Nodes: []NodeSpec{
			{Name: "n", Func: "count", Args: ArgList{List(Ref("l"), Ref("r"))}},
		},
	}

	def, err := Resolve(top, testRegistry(t), loader)
	require.NoError(t, err)

	var names []string
	for _, n := range def.Nodes() {
		names = append(names, n.Name())
	}
	if diff := cmp.Diff([]string{"n", "l", "email", "auth", "r"}, names); diff != "" {
		t.Fatalf("Nodes() mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 4, def.Options().CacheDepth)
	require.True(t, def.Options().Cache)

	inst, err := def.New(map[string]any{"email": "a@b.c"})
	require.NoError(t, err)
	res, err := inst.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a@b.c", res["l"])
	require.Equal(t, 2, res["n"])
}

func TestResolve_CircularExtends(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a.yaml", "name: a\nextends: [b]\nnodes: []\n")
	writeSpec(t, dir, "b.yaml", "name: b\nextends: [a]\nnodes: []\n")

	s, err := NewFileSpecLoader(dir).Load("a")
	require.NoError(t, err)

	_, err = Resolve(s, testRegistry(t), NewFileSpecLoader(dir))
	require.True(t, errors.IsCode(err, errors.ErrCodeDefinitionConflict), "got %v", err)
}

func TestResolve_Errors(t *testing.T) {
	r := testRegistry(t)
	tests := []struct {
		name string
		spec *Spec
		code errors.ErrorCode
	}{
		{"missing name", &Spec{}, errors.ErrCodeInvalidInput},
		{"missing func", &Spec{Name: "x", Nodes: []NodeSpec{{Name: "n"}}}, errors.ErrCodeInvalidInput},
		{"dotted node name", &Spec{Name: "x", Nodes: []NodeSpec{{Name: "a.b", Func: "echo"}}}, errors.ErrCodeInvalidInput},
		{"unknown func", &Spec{Name: "x", Nodes: []NodeSpec{{Name: "n", Func: "nope"}}}, errors.ErrCodeNotFound},
		{"unknown parent", &Spec{Name: "x", Extends: []string{"p"}}, errors.ErrCodeNotFound},
		{"extends itself", &Spec{Name: "x", Extends: []string{"x"}}, errors.ErrCodeInvalidInput},
		{"parent listed twice", &Spec{Name: "x", Extends: []string{"p", "p"}}, errors.ErrCodeInvalidInput},
		{"negative cache depth", &Spec{Name: "x", Options: &OptionsSpec{CacheDepth: intPtr(-1)}}, errors.ErrCodeInvalidInput},
		{"cycle", &Spec{Name: "x", Nodes: []NodeSpec{
			{Name: "p", Func: "echo", Args: ArgList{Ref("q")}},
			{Name: "q", Func: "echo", Args: ArgList{Ref("p")}},
		}}, errors.ErrCodeCycleDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.spec, r, nil)
			require.True(t, errors.IsCode(err, tt.code), "expected %s, got %v", tt.code, err)
		})
	}
}

// --- Registry ---

func TestRegistry(t *testing.T) {
	r := testRegistry(t)
	require.Equal(t, []string{"add", "count", "echo", "mul", "wrap"}, r.List())

	fn, ok := r.Get("add")
	require.True(t, ok)
	v, err := fn(context.Background(), 2, 3)
	require.NoError(t, err)
	require.Equal(t, 5, v)

	_, ok = r.Get("nope")
	require.False(t, ok)
	require.Error(t, r.RegisterFunc("bad", 42))
}

func TestRegistry_Definition(t *testing.T) {
	r := testRegistry(t)
	r.RegisterDefinition("calc", calc(t), "two")

	def, err := Resolve(&Spec{
		Name:  "outer",
		Nodes: []NodeSpec{{Name: "c", Func: "calc", Args: ArgList{Literal(1), Literal(2), Literal(3)}}},
	}, r, nil)
	require.NoError(t, err)

	inst, err := def.New(nil)
	require.NoError(t, err)
	res, err := inst.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, res["c"])
}

package flow

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/flowgraph/errors"
	"github.com/kbukum/flowgraph/logger"
)

// --- helpers ---

func calc(t *testing.T) *Definition {
	t.Helper()
	def, err := NewDefinition("calc").
		Call("one", add, "a", "b").
		Call("two", mul, "one", "c").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return def
}

func mustInstance(t *testing.T, def *Definition, bindings map[string]any, opts ...Option) *Instance {
	t.Helper()
	inst, err := def.New(bindings, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return inst
}

func mustExecute(t *testing.T, inst *Instance) Results {
	t.Helper()
	res, err := inst.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

// --- binding ---

func TestNew_MissingInputs(t *testing.T) {
	_, err := calc(t).New(map[string]any{"a": 1, "b": 2})

	var missing *MissingInputError
	if !stderrors.As(err, &missing) {
		t.Fatalf("expected *MissingInputError, got %v", err)
	}
	if diff := cmp.Diff([]string{"c"}, missing.Missing); diff != "" {
		t.Fatalf("Missing mismatch (-want +got):\n%s", diff)
	}
	if !errors.IsCode(err, errors.ErrCodeMissingInput) {
		t.Fatalf("expected MISSING_INPUT, got %v", err)
	}
}

func TestNew_ReportsEveryMissingInput(t *testing.T) {
	_, err := calc(t).New(nil)

	var missing *MissingInputError
	if !stderrors.As(err, &missing) {
		t.Fatalf("expected *MissingInputError, got %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, missing.Missing); diff != "" {
		t.Fatalf("Missing mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_MissingInputRunsNothing(t *testing.T) {
	var calls atomic.Int32
	def := NewDefinition("side").
		Call("effect", func(x int) int { calls.Add(1); return x }, "x").
		MustBuild()

	if _, err := def.New(nil); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no node to run, got %d calls", calls.Load())
	}
}

func TestNew_ConstDefaultAndOverride(t *testing.T) {
	def := NewDefinition("greet").
		Const("greeting", "hello").
		Input("name").
		Call("msg", func(g, n string) string { return g + " " + n }, "greeting", "name").
		MustBuild()

	res := mustExecute(t, mustInstance(t, def, map[string]any{"name": "ada"}))
	if res["msg"] != "hello ada" {
		t.Fatalf("expected 'hello ada', got %v", res["msg"])
	}

	res = mustExecute(t, mustInstance(t, def, map[string]any{"name": "ada", "greeting": "hi"}))
	if res["msg"] != "hi ada" {
		t.Fatalf("expected 'hi ada', got %v", res["msg"])
	}
}

func TestNew_IgnoresUnknownBindings(t *testing.T) {
	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3, "one": 100, "zzz": 0})
	if diff := cmp.Diff(map[string]any{"a": 1, "b": 2, "c": 3}, inst.Bindings()); diff != "" {
		t.Fatalf("Bindings() mismatch (-want +got):\n%s", diff)
	}
	res := mustExecute(t, inst)
	if res["one"] != 3 {
		t.Fatalf("expected computed one=3, got %v", res["one"])
	}
}

func TestInstance_Introspection(t *testing.T) {
	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3})

	if diff := cmp.Diff([]string{"a", "b", "c"}, inst.Inputs()); diff != "" {
		t.Fatalf("Inputs() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"two"}, inst.Outputs()); diff != "" {
		t.Fatalf("Outputs() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b", "one", "c", "two"}, inst.Order()); diff != "" {
		t.Fatalf("Order() mismatch (-want +got):\n%s", diff)
	}
	if inst.String() != "calc(a=1, b=2, c=3)" {
		t.Fatalf("unexpected String(): %s", inst.String())
	}
	if inst.Definition().Name() != "calc" {
		t.Fatalf("unexpected definition %s", inst.Definition())
	}
}

func TestInstance_GraphIsFrozen(t *testing.T) {
	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3})
	if !inst.Graph().Frozen() {
		t.Fatal("expected frozen graph")
	}
	if err := inst.Graph().AddEdge("c", "a"); !errors.IsCode(err, errors.ErrCodeGraphFrozen) {
		t.Fatalf("expected GRAPH_FROZEN, got %v", err)
	}
	if err := inst.Graph().RemoveEdge("one", "a"); !errors.IsCode(err, errors.ErrCodeGraphFrozen) {
		t.Fatalf("expected GRAPH_FROZEN, got %v", err)
	}
}

// --- Execute ---

func TestExecute_ComposesResults(t *testing.T) {
	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3})
	res := mustExecute(t, inst)

	want := Results{"a": 1, "b": 2, "c": 3, "one": 3, "two": 9}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_Idempotent(t *testing.T) {
	var calls atomic.Int32
	def := NewDefinition("count").
		Call("x", func(a int) int { calls.Add(1); return a * 2 }, "a").
		MustBuild()
	inst := mustInstance(t, def, map[string]any{"a": 21})

	first := mustExecute(t, inst)
	second := mustExecute(t, inst)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ between runs (-first +second):\n%s", diff)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected every node to re-run, got %d calls", calls.Load())
	}
}

func TestExecute_AttributeReference(t *testing.T) {
	def := NewDefinition("attr").
		Call("y", func(e string) account { return account{Email: e} }, "email").
		Call("x", func(s string) string { return "to:" + s }, "y.Email").
		MustBuild()

	res := mustExecute(t, mustInstance(t, def, map[string]any{"email": "a@b.c"}))
	if res["x"] != "to:a@b.c" {
		t.Fatalf("expected 'to:a@b.c', got %v", res["x"])
	}
}

func TestExecute_MissingAttribute(t *testing.T) {
	def := NewDefinition("attr").
		Call("y", func(e string) account { return account{Email: e} }, "email").
		Call("x", func(s string) string { return s }, "y.phone").
		MustBuild()

	_, err := mustInstance(t, def, map[string]any{"email": "a@b.c"}).Execute(context.Background())

	var attrErr *AttributeResolutionError
	if !stderrors.As(err, &attrErr) {
		t.Fatalf("expected *AttributeResolutionError, got %v", err)
	}
	if attrErr.Node != "x" || attrErr.Ref != "y" || attrErr.Field != "phone" {
		t.Fatalf("unexpected error fields: %+v", attrErr)
	}
	if !errors.IsCode(err, errors.ErrCodeAttributeResolution) {
		t.Fatalf("expected ATTRIBUTE_RESOLUTION, got %v", err)
	}
}

func TestExecute_ListReferenceKeepsOrder(t *testing.T) {
	var got []any
	def := NewDefinition("list").
		Call("y", func() string { return "Y" }).
		Call("z", func() string { return "Z" }).
		Node("x", func(_ context.Context, args ...any) (any, error) {
			got = args[0].([]any)
			return len(got), nil
		}, Refs("z", "y")).
		MustBuild()

	res := mustExecute(t, mustInstance(t, def, nil))
	if diff := cmp.Diff([]any{"Z", "Y"}, got); diff != "" {
		t.Fatalf("list argument mismatch (-want +got):\n%s", diff)
	}
	if res["x"] != 2 {
		t.Fatalf("expected 2, got %v", res["x"])
	}
}

func TestExecute_NodeFailureHalts(t *testing.T) {
	boom := stderrors.New("boom")
	var after atomic.Int32
	def := NewDefinition("fail").
		Call("bad", func(a int) (int, error) { return 0, boom }, "a").
		Call("next", func(b int) int { after.Add(1); return b }, "bad").
		MustBuild()
	inst := mustInstance(t, def, map[string]any{"a": 1})

	res, err := inst.Execute(context.Background())
	if res != nil {
		t.Fatalf("expected no results, got %v", res)
	}

	var nodeErr *NodeExecutionError
	if !stderrors.As(err, &nodeErr) {
		t.Fatalf("expected *NodeExecutionError, got %v", err)
	}
	if nodeErr.Node != "bad" || !stderrors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Load() != 0 {
		t.Fatal("expected execution to halt after the failing node")
	}
	if _, err := inst.Result("bad"); err == nil {
		t.Fatal("expected no result from a failed run")
	}
}

func TestExecute_PanicBecomesError(t *testing.T) {
	def := NewDefinition("panic").
		Call("p", func(a int) int { panic("nope") }, "a").
		MustBuild()

	_, err := mustInstance(t, def, map[string]any{"a": 1}).Execute(context.Background())
	if !errors.IsCode(err, errors.ErrCodeNodeExecution) {
		t.Fatalf("expected NODE_EXECUTION, got %v", err)
	}
}

func TestExecute_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3})
	if _, err := inst.Execute(ctx); !errors.IsCode(err, errors.ErrCodeCanceled) {
		t.Fatalf("expected CANCELED, got %v", err)
	}
}

func TestExecute_CancelStopsScheduling(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var later atomic.Int32
			def := NewDefinition("cancel").
				Call("first", func(a int) int { cancel(); return a }, "a").
				Call("second", func(b int) int { later.Add(1); return b }, "first").
				MustBuild()

			inst := mustInstance(t, def, map[string]any{"a": 1}, WithConcurrency(concurrency))
			if _, err := inst.Execute(ctx); !errors.IsCode(err, errors.ErrCodeCanceled) {
				t.Fatalf("expected CANCELED, got %v", err)
			}
			if later.Load() != 0 {
				t.Fatal("expected dependent node not to start")
			}
		})
	}
}

// --- results ---

func TestInstance_ResultLookup(t *testing.T) {
	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3})
	if inst.Results() != nil {
		t.Fatal("expected no results before Execute")
	}
	if _, err := inst.Result("two"); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND before Execute, got %v", err)
	}

	mustExecute(t, inst)
	v, err := inst.Result("two")
	if err != nil || v != 9 {
		t.Fatalf("expected 9, got %v, %v", v, err)
	}

	var nf *NotFoundError
	if _, err := inst.Result("nope"); !stderrors.As(err, &nf) || nf.Name != "nope" {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}

	copied := inst.Results()
	copied["two"] = 0
	if v, _ := inst.Result("two"); v != 9 {
		t.Fatal("Results() must return a copy")
	}
}

func TestValue_Typed(t *testing.T) {
	res := Results{"n": 3, "s": "x"}
	n, err := Value[int](res, "n")
	if err != nil || n != 3 {
		t.Fatalf("expected 3, got %v, %v", n, err)
	}
	if _, err := Value[int](res, "s"); err == nil {
		t.Fatal("expected type mismatch error")
	}
	if _, err := Value[int](res, "missing"); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

// --- concurrency ---

func wide(t *testing.T, width int, sleep time.Duration, inFlight, peak *atomic.Int32) *Definition {
	t.Helper()
	b := NewDefinition("wide")
	var names []string
	for i := range width {
		name := fmt.Sprintf("n%d", i)
		names = append(names, name)
		b.Call(name, func(seed int) int {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(sleep)
			inFlight.Add(-1)
			return seed + i
		}, "seed")
	}
	b.Call("total", func(xs []int) int {
		sum := 0
		for _, x := range xs {
			sum += x
		}
		return sum
	}, names)
	return b.MustBuild()
}

func TestExecute_ConcurrentMatchesSequential(t *testing.T) {
	var inFlight, peak atomic.Int32
	def := wide(t, 8, 0, &inFlight, &peak)

	seq := mustExecute(t, mustInstance(t, def, map[string]any{"seed": 1}))
	par := mustExecute(t, mustInstance(t, def, map[string]any{"seed": 1}, WithConcurrency(4)))
	if diff := cmp.Diff(seq, par); diff != "" {
		t.Fatalf("concurrent results differ (-seq +par):\n%s", diff)
	}
	if seq["total"] != 8+28 {
		t.Fatalf("expected 36, got %v", seq["total"])
	}
}

func TestExecute_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	def := wide(t, 6, 20*time.Millisecond, &inFlight, &peak)

	mustExecute(t, mustInstance(t, def, map[string]any{"seed": 0}, WithConcurrency(2)))
	if p := peak.Load(); p > 2 || p < 1 {
		t.Fatalf("expected at most 2 nodes in flight, saw %d", p)
	}
}

func TestExecute_ConcurrentFailure(t *testing.T) {
	boom := stderrors.New("boom")
	var after atomic.Int32
	def := NewDefinition("fail").
		Call("ok", func(a int) int { return a }, "a").
		Call("bad", func(a int) (int, error) { return 0, boom }, "a").
		Call("next", func(x, y int) int { after.Add(1); return x + y }, "ok", "bad").
		MustBuild()

	_, err := mustInstance(t, def, map[string]any{"a": 1}, WithConcurrency(3)).Execute(context.Background())
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if after.Load() != 0 {
		t.Fatal("expected no further level to start")
	}
}

// --- hooks ---

func TestExecute_HookEvents(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	hook := func(_ context.Context, ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}

	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3}, WithHook(hook), WithVerbose(true))
	mustExecute(t, inst)

	var got []string
	for _, ev := range events {
		got = append(got, ev.Node+":"+string(ev.Phase))
		if ev.Graph != "calc" || ev.RunID == "" || ev.RunID != events[0].RunID {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	want := []string{
		"a:start", "a:end", "b:start", "b:end", "one:start", "one:end",
		"c:start", "c:end", "two:start", "two:end",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}

	first := events[0].RunID
	events = nil
	mustExecute(t, inst)
	if events[0].RunID == first {
		t.Fatal("expected a fresh run ID per Execute")
	}
}

func TestExecute_HookSeesFailure(t *testing.T) {
	boom := stderrors.New("boom")
	var failed string
	def := NewDefinition("fail").
		Call("bad", func(a int) (int, error) { return 0, boom }, "a").
		MustBuild()

	hook := func(_ context.Context, ev Event) {
		if ev.Phase == PhaseEnd && ev.Err != nil {
			failed = ev.Node
		}
	}
	_, _ = mustInstance(t, def, map[string]any{"a": 1}, WithHook(hook)).Execute(context.Background())
	if failed != "bad" {
		t.Fatalf("expected end event with error for bad, got %q", failed)
	}
}

func TestExecute_RunIDInContext(t *testing.T) {
	var fromCtx, fromHook string
	def := NewDefinition("ids").
		Node("x", func(ctx context.Context, _ ...any) (any, error) {
			fromCtx, _ = logger.RunIDFromContext(ctx)
			return nil, nil
		}).
		MustBuild()

	hook := func(_ context.Context, ev Event) { fromHook = ev.RunID }
	mustExecute(t, mustInstance(t, def, nil, WithHook(hook)))
	if fromCtx == "" || fromCtx != fromHook {
		t.Fatalf("expected node context to carry run ID %q, got %q", fromHook, fromCtx)
	}
}

func TestExecute_VerboseLogsNodeStarts(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "flow-test", &buf)

	inst := mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3}, WithLogger(log))
	mustExecute(t, inst)
	if strings.Contains(buf.String(), "flow node started") {
		t.Fatalf("expected no node logs without verbose, got %s", buf.String())
	}

	inst = mustInstance(t, calc(t), map[string]any{"a": 1, "b": 2, "c": 3}, WithLogger(log), WithVerbose(true))
	mustExecute(t, inst)
	if got := strings.Count(buf.String(), "flow node started"); got != 5 {
		t.Fatalf("expected 5 node start lines, got %d:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), `"node":"two"`) {
		t.Fatalf("expected node field in log output, got %s", buf.String())
	}
}

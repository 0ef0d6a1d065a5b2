package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/louisbranch/rollable/internal/platform/errors"
	"github.com/louisbranch/rollable/internal/random"
	"github.com/louisbranch/rollable/internal/tables/ref"
	"github.com/louisbranch/rollable/internal/tables/table"
)

type fixture struct {
	tables  map[string]table.Source
	bundles map[string][]string
}

func newEngine(t *testing.T, f fixture) *Engine {
	t.Helper()
	registry := table.NewRegistry("")
	for p, src := range f.tables {
		tbl, err := table.New(src)
		if err != nil {
			t.Fatalf("table %s: %v", p, err)
		}
		if err := registry.Add(p, tbl); err != nil {
			t.Fatalf("add %s: %v", p, err)
		}
	}
	for p, refs := range f.bundles {
		b, err := table.NewBundle("", refs)
		if err != nil {
			t.Fatalf("bundle %s: %v", p, err)
		}
		if err := registry.Add(p, b); err != nil {
			t.Fatalf("add %s: %v", p, err)
		}
	}
	return New(registry)
}

func mustRef(t *testing.T, raw string) ref.Ref {
	t.Helper()
	r, err := ref.Parse(raw)
	if err != nil {
		t.Fatalf("ref %q: %v", raw, err)
	}
	return r
}

func TestResolveEndToEnd(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/loot": {
			Dice: "1d2",
			Rows: []string{"1|Sword", "2|[[@gold:10]] gold, then [[@next:/other]]"},
		},
		"/other": {Rows: []string{"a dragon"}},
	}})

	out, _ := e.Resolve(mustRef(t, "/loot;store=gold"), "/", NewContext(nil), random.NewScript(2))

	text := Render(out.Node)
	if text != "10 gold, then a dragon" {
		t.Fatalf("rendered %q", text)
	}
	if gold, ok := out.Context.Var("gold"); !ok || gold != 10 {
		t.Fatalf("context gold = %d, %v", gold, ok)
	}
	tr := out.Node.(*TableResult)
	row := tr.Rows[0].(*RowResult)
	if row.Total != 2 || len(row.Refs) != 1 {
		t.Fatalf("row = %+v", row)
	}
	if other, ok := row.Refs[0].(*TableResult); !ok || other.Path != "/other" {
		t.Fatalf("nested = %#v", row.Refs[0])
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/loot": {Dice: "2d6", Rows: []string{"2-7|[[@g:3d6]] gold [[/gem]]", "8-12|[[30% a map]][[70% nothing]]"}},
		"/gem":  {Dice: "1d4", Rows: []string{"ruby", "opal", "jade", "onyx"}},
	}})
	r := mustRef(t, "/loot;count=5")

	first, src1 := e.Resolve(r, "/", NewContext(nil), random.NewSource(42))
	second, src2 := e.Resolve(r, "/", NewContext(nil), random.NewSource(42))

	if diff := cmp.Diff(first.Node, second.Node); diff != "" {
		t.Fatalf("trees differ (-first +second):\n%s", diff)
	}
	if src1 != src2 {
		t.Fatalf("sources differ: %v vs %v", src1, src2)
	}
	h1, err := Fingerprint(first.Node)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	h2, _ := Fingerprint(second.Node)
	if h1 != h2 {
		t.Fatalf("fingerprints differ: %s vs %s", h1, h2)
	}
	if src1 == random.Source(random.NewSource(42)) {
		t.Fatal("resolution did not advance the source")
	}
}

func pairEngine(t *testing.T) *Engine {
	return newEngine(t, fixture{tables: map[string]table.Source{
		"/pair": {Dice: "1d1", Rows: []string{"[[/sub]]"}},
		"/sub":  {Dice: "1d100", Rows: []string{"1-100|[[@v:1d1000]]"}},
	}})
}

func TestRerollRowSharesSiblings(t *testing.T) {
	e := pairEngine(t)
	ctx := NewContext(nil)
	out, _ := e.Resolve(mustRef(t, "/pair;count=2"), "/", ctx, random.NewScript(1, 5, 100, 1, 6, 200))
	root := out.Node.(*TableResult)
	before, _ := Fingerprint(root)

	next, _, err := e.Reroll(root, []int{0}, ctx, random.NewScript(1, 7, 300))
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	rerolled := next.(*TableResult)

	if got := Render(rerolled); got != "300\n200" {
		t.Fatalf("rerolled render = %q", got)
	}
	if rerolled.Rows[1] != root.Rows[1] {
		t.Fatal("row B was copied instead of shared")
	}
	if diff := cmp.Diff(root.Rows[1], rerolled.Rows[1]); diff != "" {
		t.Fatalf("row B changed:\n%s", diff)
	}
	if got := Render(root); got != "100\n200" {
		t.Fatalf("original tree changed: %q", got)
	}
	if after, _ := Fingerprint(root); after != before {
		t.Fatal("original fingerprint changed")
	}
}

func TestRerollWholeNodeKeepsCount(t *testing.T) {
	e := pairEngine(t)
	ctx := NewContext(nil)
	out, _ := e.Resolve(mustRef(t, "/pair;count=2"), "/", ctx, random.NewScript(1, 5, 100, 1, 6, 200))

	next, _, err := e.Reroll(out.Node, nil, ctx, random.NewScript(1, 7, 300, 1, 8, 400))
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if got := Render(next); got != "300\n400" {
		t.Fatalf("render = %q", got)
	}

	// A nested whole node keeps its own instructions too.
	next, _, err = e.Reroll(out.Node, []int{1, 0}, ctx, random.NewScript(9, 999))
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if rows := next.(*TableResult).Rows; len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}

func TestExtraRefsHaveNoIndexPath(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/w":   {Dice: "1d1", Rows: []string{"[[/sub]]"}, Extra: "and [[/sub]]"},
		"/sub": {Dice: "1d100", Rows: []string{"1-100|[[@v:1d1000]]"}},
	}})
	ctx := NewContext(nil)
	out, _ := e.Resolve(mustRef(t, "/w"), "/", ctx, random.NewScript(1, 5, 100, 6, 200))
	root := out.Node.(*TableResult)
	if len(root.ExtraRefs) != 1 || Render(root.ExtraRefs[0]) != "200" {
		t.Fatalf("extra refs = %+v", root.ExtraRefs)
	}

	if _, ok := Locate(root, []int{0, 1}, ctx); ok {
		t.Fatal("Locate reached past the row's own references")
	}
	if _, _, err := e.Reroll(root, []int{0, 1}, ctx, random.NewSource(1)); apperrors.GetCode(err) != apperrors.CodeIndexOutOfRange {
		t.Fatalf("err = %v", err)
	}

	next, _, err := e.Reroll(root, nil, ctx, random.NewScript(1, 7, 300, 8, 400))
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if got := Render(next.(*TableResult).ExtraRefs[0]); got != "400" {
		t.Fatalf("extra ref after whole reroll = %q", got)
	}
}

func TestRerollNestedNode(t *testing.T) {
	e := pairEngine(t)
	ctx := NewContext(nil)
	out, _ := e.Resolve(mustRef(t, "/pair;count=2"), "/", ctx, random.NewScript(1, 5, 100, 1, 6, 200))
	root := out.Node.(*TableResult)

	next, _, err := e.Reroll(root, []int{1, 0}, ctx, random.NewScript(9, 999))
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if got := Render(next); got != "100\n999" {
		t.Fatalf("render = %q", got)
	}
	if next.(*TableResult).Rows[0] != root.Rows[0] {
		t.Fatal("row A was copied instead of shared")
	}

	// Row slot of the nested table.
	next, _, err = e.Reroll(root, []int{1, 0, 0}, ctx, random.NewScript(3, 333))
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if got := Render(next); got != "100\n333" {
		t.Fatalf("render = %q", got)
	}
}

func TestRerollErrors(t *testing.T) {
	e := pairEngine(t)
	ctx := NewContext(nil)
	out, _ := e.Resolve(mustRef(t, "/pair"), "/", ctx, random.NewSource(1))

	tests := []struct {
		name string
		root Node
		path []int
		code apperrors.Code
	}{
		{name: "row out of range", root: out.Node, path: []int{3}, code: apperrors.CodeIndexOutOfRange},
		{name: "negative index", root: out.Node, path: []int{-1}, code: apperrors.CodeIndexOutOfRange},
		{name: "nested out of range", root: out.Node, path: []int{0, 4}, code: apperrors.CodeIndexOutOfRange},
		{name: "descends into leaf", root: &UnresolvedLeaf{Path: "/none"}, path: []int{0}, code: apperrors.CodeIndexOutOfRange},
		{name: "leaf still missing", root: &UnresolvedLeaf{Path: "/none"}, path: nil, code: apperrors.CodePathNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.Reroll(tt.root, tt.path, ctx, random.NewSource(2))
			if got := apperrors.GetCode(err); got != tt.code {
				t.Fatalf("code = %s, want %s (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestSelfCycleTruncates(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/loop": {Rows: []string{"again [[./loop]]"}},
	}})
	r := mustRef(t, "/loop")
	out, _ := e.Resolve(r, "/", NewContext(nil), random.NewSource(5))

	depth := 0
	n := out.Node
	for {
		tr, ok := n.(*TableResult)
		if !ok {
			break
		}
		depth++
		n = tr.Rows[0].(*RowResult).Refs[0]
	}
	if depth != MaxDepth+2 {
		t.Fatalf("rolled %d nested tables, want %d", depth, MaxDepth+2)
	}
	leaf, ok := n.(*UnresolvedLeaf)
	if !ok || !leaf.Truncated {
		t.Fatalf("tail = %#v, want truncated leaf", n)
	}
	if diff := cmp.Diff(mustRef(t, "./loop"), leaf.Ref); diff != "" {
		t.Fatalf("leaf ref differs from its unresolved form:\n%s", diff)
	}
	if !strings.HasSuffix(Render(out.Node), "again {/loop}") {
		t.Fatalf("render = %q", Render(out.Node))
	}
}

func TestUniqueAndIgnore(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/d": {Dice: "1d3", Rows: []string{"a", "b", "c"}},
	}})
	tests := []struct {
		name  string
		ref   string
		faces []int
		want  string
	}{
		{name: "unique rerolls repeats", ref: "/d;count=3;unique", faces: []int{1, 1, 2, 2, 3}, want: "a\nb\nc"},
		{name: "ignore skips totals", ref: "/d;ignore=1,2", faces: []int{1, 2, 1, 3}, want: "c"},
		{name: "ignored forced total stops batch", ref: "/d;count=2;total=1;ignore=1", want: ""},
		{name: "modifier shifts total", ref: "/d;mod=1", faces: []int{1}, want: "b"},
		{name: "dice override", ref: "/d;dice=1d1+2", want: "c"},
		{name: "count zero", ref: "/d;count=0", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := random.NewScript(tt.faces...)
			out, next := e.Resolve(mustRef(t, tt.ref), "/", NewContext(nil), src)
			if got := Render(out.Node); got != tt.want {
				t.Fatalf("render = %q, want %q", got, tt.want)
			}
			if s, ok := next.(random.Script); ok && s.Remaining() != 0 {
				t.Fatalf("%d scripted faces unused", s.Remaining())
			}
		})
	}
}

func TestRowMissingIsData(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/m": {Dice: "1d6", Rows: []string{"1-2|low"}},
	}})
	out, _ := e.Resolve(mustRef(t, "/m;count=2"), "/", NewContext(nil), random.NewScript(5, 1))
	tr := out.Node.(*TableResult)
	if diff := cmp.Diff(Row(&RowMissing{Total: 5}), tr.Rows[0]); diff != "" {
		t.Fatalf("row 0:\n%s", diff)
	}
	if got := Render(tr); got != "(no row for 5)\nlow" {
		t.Fatalf("render = %q", got)
	}
}

func TestBundleThreadsStoredValues(t *testing.T) {
	e := newEngine(t, fixture{
		tables: map[string]table.Source{
			"/gold":  {Rows: []string{"[[@gold:1d6]] coins"}},
			"/spend": {Rows: []string{"spent [gold]"}},
		},
		bundles: map[string][]string{
			"/purse": {"./gold;store=gold", "./spend"},
		},
	})
	ctx := NewContext(map[string]int{"seed": 1})
	out, _ := e.Resolve(mustRef(t, "/purse;store=total:gold"), "/", ctx, random.NewScript(1, 4, 1))

	if got := Render(out.Node); got != "4 coins\nspent 4" {
		t.Fatalf("render = %q", got)
	}
	if total, ok := out.Context.Var("total"); !ok || total != 4 {
		t.Fatalf("total = %d, %v", total, ok)
	}
	if _, ok := out.Context.Var("gold"); ok {
		t.Fatal("unstored child export leaked to the caller")
	}

	loc, ok := Locate(out.Node, []int{0, 1}, ctx)
	if !ok {
		t.Fatal("Locate failed")
	}
	if loc.Context.Depth != 1 || loc.Slot != WholeNode {
		t.Fatalf("location = %+v", loc)
	}
	if gold, _ := loc.Context.Var("gold"); gold != 4 {
		t.Fatalf("located context gold = %d", gold)
	}
	if seed, _ := loc.Context.Var("seed"); seed != 1 {
		t.Fatalf("located context lost caller vars")
	}

	next, _, err := e.Reroll(out.Node, []int{0}, ctx, random.NewScript(1, 6, 1))
	if err != nil {
		t.Fatalf("Reroll: %v", err)
	}
	if got := Render(next); got != "6 coins\nspent 6" {
		t.Fatalf("render = %q", got)
	}
	if total := next.Exports()["total"]; total != 6 {
		t.Fatalf("bundle exports = %v", next.Exports())
	}
}

func TestRerollBundleRecomputesStore(t *testing.T) {
	e := newEngine(t, fixture{
		tables: map[string]table.Source{
			"/gold": {Dice: "1d2", Rows: []string{"1|[[@gold:1d6]] coins"}},
		},
		bundles: map[string][]string{
			"/purse": {"./gold;store=gold"},
		},
	})

	tests := []struct {
		name   string
		raw    string
		vars   map[string]int
		faces  []int
		before map[string]int
		after  map[string]int
	}{
		{
			name:   "dropped export is not kept",
			raw:    "/purse;store=gold",
			faces:  []int{1, 4},
			before: map[string]int{"gold": 4},
			after:  map[string]int{},
		},
		{
			name:   "caller value still backs a renamed store",
			raw:    "/purse;store=total:gold",
			vars:   map[string]int{"gold": 9},
			faces:  []int{2},
			before: map[string]int{"total": 9},
			after:  map[string]int{"total": 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(tt.vars)
			r := mustRef(t, tt.raw)
			out, _ := e.Resolve(r, "/", ctx, random.NewScript(tt.faces...))
			if diff := cmp.Diff(tt.before, out.Node.Exports()); diff != "" {
				t.Fatalf("resolved exports (-want +got):\n%s", diff)
			}

			next, _, err := e.Reroll(out.Node, []int{0}, ctx, random.NewScript(2))
			if err != nil {
				t.Fatalf("Reroll: %v", err)
			}
			if diff := cmp.Diff(tt.after, next.Exports()); diff != "" {
				t.Fatalf("rerolled exports (-want +got):\n%s", diff)
			}
			fresh, _ := e.Resolve(r, "/", ctx, random.NewScript(2))
			if diff := cmp.Diff(fresh.Node.Exports(), next.Exports()); diff != "" {
				t.Fatalf("reroll differs from a fresh roll (-fresh +reroll):\n%s", diff)
			}
		})
	}
}

func TestInputsRollNamedTables(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/npc": {
			Rows:   []string{"Hi [name:t=uppercase], [age] years"},
			Inputs: map[string]string{"name": "./names"},
		},
		"/names": {Rows: []string{"bob"}},
	}})
	out, _ := e.Resolve(mustRef(t, "/npc"), "/", NewContext(map[string]int{"age": 30}), random.NewSource(3))
	if got := Render(out.Node); got != "Hi BOB, 30 years" {
		t.Fatalf("render = %q", got)
	}
}

func TestUnresolvedPathDegrades(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/a": {Rows: []string{"see [[../../b]] and [[/missing]]"}},
	}})
	out, _ := e.Resolve(mustRef(t, "/a"), "/", NewContext(nil), random.NewSource(1))
	row := out.Node.(*TableResult).Rows[0].(*RowResult)
	for i, n := range row.Refs {
		leaf, ok := n.(*UnresolvedLeaf)
		if !ok || leaf.Truncated {
			t.Fatalf("ref %d = %#v", i, n)
		}
	}
	if got := Render(out.Node); got != "see {../../b} and {/missing}" {
		t.Fatalf("render = %q", got)
	}
}

func TestDepthLimitAppliesToContext(t *testing.T) {
	e := newEngine(t, fixture{tables: map[string]table.Source{
		"/a": {Rows: []string{"x [[/b]]"}, Extra: "also [[/b]]"},
		"/b": {Rows: []string{"y"}},
	}})
	deep := Context{Depth: MaxDepth + 1}
	out, _ := e.Resolve(mustRef(t, "/a"), "/", deep, random.NewSource(1))
	tr := out.Node.(*TableResult)
	if leaf, ok := tr.Rows[0].(*RowResult).Refs[0].(*UnresolvedLeaf); !ok || !leaf.Truncated || leaf.Path != "/b" {
		t.Fatalf("row ref = %#v", tr.Rows[0].(*RowResult).Refs[0])
	}
	if leaf, ok := tr.ExtraRefs[0].(*UnresolvedLeaf); !ok || !leaf.Truncated {
		t.Fatalf("extra ref = %#v", tr.ExtraRefs[0])
	}

	out, _ = e.Resolve(mustRef(t, "/a"), "/", Context{Depth: MaxDepth}, random.NewSource(1))
	if got := Render(out.Node); got != "x y\nalso y" {
		t.Fatalf("render = %q", got)
	}
}

func TestContextIsImmutable(t *testing.T) {
	vars := map[string]int{"a": 1}
	ctx := NewContext(vars)
	vars["a"] = 2
	next := ctx.With("b", 3).Child()

	if v, _ := ctx.Var("a"); v != 1 {
		t.Fatalf("context shares caller map")
	}
	if _, ok := ctx.Var("b"); ok {
		t.Fatal("With changed the receiver")
	}
	if next.Depth != 1 || ctx.Depth != 0 {
		t.Fatalf("depths = %d, %d", next.Depth, ctx.Depth)
	}
	got := next.Vars()
	got["a"] = 9
	if v, _ := next.Var("a"); v != 1 {
		t.Fatal("Vars exposed internal map")
	}
}

func TestReplaceOutOfRange(t *testing.T) {
	_, err := Replace(&UnresolvedLeaf{Path: "/x"}, []int{0, 1}, &UnresolvedLeaf{})
	if !errors.Is(err, apperrors.New(apperrors.CodeIndexOutOfRange, "")) {
		t.Fatalf("err = %v", err)
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	e := newEngine(t, fixture{
		tables: map[string]table.Source{
			"/a": {Rows: []string{"[[/b]] [[/nope]]"}, Extra: "[[/b]]"},
			"/b": {Rows: []string{"b"}},
		},
		bundles: map[string][]string{"/all": {"/a", "/b"}},
	})
	out, _ := e.Resolve(mustRef(t, "/all"), "/", NewContext(nil), random.NewSource(1))

	var paths []string
	Walk(out.Node, func(n Node) bool {
		switch n := n.(type) {
		case *TableResult:
			paths = append(paths, n.Path)
		case *BundleResult:
			paths = append(paths, n.Path)
		case *UnresolvedLeaf:
			paths = append(paths, "?"+n.Path)
		}
		return true
	})
	want := []string{"/all", "/a", "/b", "?/nope", "/b", "/b"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("walk order (-want +got):\n%s", diff)
	}

	count := 0
	Walk(out.Node, func(Node) bool { count++; return false })
	if count != 1 {
		t.Fatalf("visited %d nodes after skipping children", count)
	}
}

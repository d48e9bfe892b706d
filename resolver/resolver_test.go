package resolver

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsawler/pdfstore/core"
)

// objects is a Func backed by a map, counting lookups.
type objects struct {
	byNumber map[int]core.Object
	calls    int
}

func (o *objects) resolve(ref core.IndirectRef) (core.Object, error) {
	o.calls++
	obj, ok := o.byNumber[ref.Number]
	if !ok {
		return nil, fmt.Errorf("object %d not found", ref.Number)
	}
	return obj, nil
}

func TestResolveShallow(t *testing.T) {
	objs := &objects{byNumber: map[int]core.Object{
		5: core.Dict{"Inner": core.IndirectRef{Number: 6}},
		6: core.Int(42),
	}}
	r := NewResolver(objs.resolve)

	got, err := r.Resolve(core.IndirectRef{Number: 5})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := core.Dict{"Inner": core.IndirectRef{Number: 6}}
	if diff := cmp.Diff(core.Object(want), got); diff != "" {
		t.Errorf("shallow resolve mismatch (-want +got):\n%s", diff)
	}

	for _, obj := range []core.Object{core.Int(1), core.Name("X"), core.Null{}, core.Array{core.IndirectRef{Number: 6}}} {
		got, err := r.Resolve(obj)
		if err != nil {
			t.Fatalf("Resolve(%v) failed: %v", obj, err)
		}
		if diff := cmp.Diff(obj, got); diff != "" {
			t.Errorf("Resolve(%v) changed a direct object:\n%s", obj, diff)
		}
	}
}

func TestResolveDeep(t *testing.T) {
	objs := &objects{byNumber: map[int]core.Object{
		1: core.Dict{"Pages": core.IndirectRef{Number: 2}, "Names": core.Array{core.IndirectRef{Number: 4}}},
		2: core.Dict{"Kids": core.Array{core.IndirectRef{Number: 3}, core.IndirectRef{Number: 3}}},
		3: core.Dict{"Type": core.Name("Page")},
		4: core.String("inner"),
	}}
	r := NewResolver(objs.resolve)

	got, err := r.ResolveDeep(core.IndirectRef{Number: 1})
	if err != nil {
		t.Fatalf("ResolveDeep failed: %v", err)
	}

	page := core.Dict{"Type": core.Name("Page")}
	want := core.Dict{
		"Pages": core.Dict{"Kids": core.Array{page, page}},
		"Names": core.Array{core.String("inner")},
	}
	if diff := cmp.Diff(core.Object(want), got); diff != "" {
		t.Errorf("deep resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStreamDict(t *testing.T) {
	objs := &objects{byNumber: map[int]core.Object{100: core.Name("FlateDecode")}}
	stream := &core.Stream{
		Dict: core.Dict{"Filter": core.IndirectRef{Number: 100}},
		Data: []byte("stream data"),
	}
	r := NewResolver(objs.resolve)

	shallow, err := r.Resolve(stream)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := shallow.(*core.Stream).Dict["Filter"].(core.IndirectRef); !ok {
		t.Error("shallow resolve expanded the stream dictionary")
	}

	deep, err := r.ResolveDeep(stream)
	if err != nil {
		t.Fatalf("ResolveDeep failed: %v", err)
	}
	ds := deep.(*core.Stream)
	if ds.Dict["Filter"] != core.Name("FlateDecode") {
		t.Errorf("/Filter = %v, want /FlateDecode", ds.Dict["Filter"])
	}
	if string(ds.Data) != "stream data" {
		t.Errorf("data = %q", ds.Data)
	}
}

func TestCycleDetection(t *testing.T) {
	objs := &objects{byNumber: map[int]core.Object{
		50: core.Dict{"Next": core.IndirectRef{Number: 51}},
		51: core.Dict{"Next": core.IndirectRef{Number: 50}},
	}}
	r := NewResolver(objs.resolve)

	_, err := r.ResolveDeep(core.IndirectRef{Number: 50})
	if err == nil || !strings.Contains(err.Error(), "circular reference detected for object 50") {
		t.Errorf("got %v, want circular reference error", err)
	}

	// The failed walk must not leave state behind.
	objs.byNumber[51] = core.Int(0)
	if _, err := r.ResolveDeep(core.IndirectRef{Number: 50}); err != nil {
		t.Errorf("ResolveDeep after Reset failed: %v", err)
	}
}

func TestMaxDepth(t *testing.T) {
	objs := &objects{byNumber: map[int]core.Object{70: core.String("End")}}
	for i := 60; i < 70; i++ {
		objs.byNumber[i] = core.Dict{"Next": core.IndirectRef{Number: i + 1}}
	}

	if _, err := NewResolver(objs.resolve, WithMaxDepth(5)).ResolveDeep(core.IndirectRef{Number: 60}); err == nil {
		t.Error("expected error for exceeding max depth")
	}
	if _, err := NewResolver(objs.resolve).ResolveDeep(core.IndirectRef{Number: 60}); err != nil {
		t.Errorf("default depth: %v", err)
	}
}

func TestResolveDictAndArray(t *testing.T) {
	objs := &objects{byNumber: map[int]core.Object{80: core.String("Value")}}
	r := NewResolver(objs.resolve)

	dict, err := r.ResolveDict(core.Dict{"Key": core.IndirectRef{Number: 80}})
	if err != nil {
		t.Fatalf("ResolveDict failed: %v", err)
	}
	if dict["Key"] != core.String("Value") {
		t.Errorf("ResolveDict: got %v", dict["Key"])
	}

	arr, err := r.ResolveArray(core.Array{core.IndirectRef{Number: 80}})
	if err != nil {
		t.Fatalf("ResolveArray failed: %v", err)
	}
	if arr[0] != core.String("Value") {
		t.Errorf("ResolveArray: got %v", arr[0])
	}

	if _, err := r.ResolveDict(core.Dict{"Missing": core.IndirectRef{Number: 81}}); err == nil {
		t.Error("expected error for missing object")
	}
}

package waynet

import (
	"testing"

	"github.com/binzume/zenconv/mesh"
	"github.com/binzume/zenconv/zen"
	"github.com/pkg/errors"
)

func testPoints() []*zen.WayPoint {
	return []*zen.WayPoint{
		{Name: "WP_A", Position: zen.Vec3{0, 0, 0}, Direction: zen.Vec3{0, 0, 1}},
		{Name: "WP_B", Position: zen.Vec3{300, 0, 400}},
		{Name: "WP_C", Position: zen.Vec3{300, 0, 0}},
		{Name: "WP_LONELY", Position: zen.Vec3{1000, 0, 0}},
	}
}

func TestBuild(t *testing.T) {
	edges := []zen.WayEdge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 0}, {A: 1, B: 0}}
	g, err := Build(testPoints(), edges)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 4 || g.EdgeCount() != 3 {
		t.Fatalf("len %d edges %d", g.Len(), g.EdgeCount())
	}
	for _, e := range edges {
		a, b := testPoints()[e.A].Name, testPoints()[e.B].Name
		if !contains(g.Neighbors(a), b) || !contains(g.Neighbors(b), a) {
			t.Errorf("%s-%s not symmetric", a, b)
		}
		dab, ok1 := g.Distance(a, b)
		dba, ok2 := g.Distance(b, a)
		if !ok1 || !ok2 || dab != dba {
			t.Errorf("distance %s-%s: %v %v", a, b, dab, dba)
		}
	}
	if d, _ := g.Distance("WP_A", "WP_B"); d != 5 {
		t.Errorf("distance in meters: %v", d)
	}
	if g.computed != 3 {
		t.Errorf("computed %d distances", g.computed)
	}
	if n := g.Node("WP_A"); n == nil || n.Direction.Z != 1 || len(n.Neighbors) != 2 {
		t.Errorf("node: %+v", n)
	}
	if p := g.Node("WP_C").Position; p.X != 3 {
		t.Errorf("position: %v", p)
	}
	if len(g.Neighbors("WP_LONELY")) != 0 || g.Neighbors("NOPE") != nil {
		t.Error("unexpected neighbors")
	}
	if _, ok := g.Distance("WP_A", "WP_LONELY"); ok {
		t.Error("distance between unconnected points")
	}
	if names := g.Names(); names[0] != "WP_A" || names[3] != "WP_LONELY" {
		t.Errorf("order: %v", names)
	}
}

func TestBuildBadEdge(t *testing.T) {
	_, err := Build(testPoints(), []zen.WayEdge{{A: 0, B: 9}})
	var ie *mesh.IndexError
	if !errors.As(err, &ie) || ie.Index != 9 || ie.Len != 4 {
		t.Errorf("got %v", err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package main

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/binzume/zenconv/assets"
	"github.com/binzume/zenconv/converter"
	"github.com/binzume/zenconv/gltfutil"
	"github.com/binzume/zenconv/scene"
	"github.com/binzume/zenconv/waynet"
	"github.com/davecgh/go-spew/spew"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return strings.ToLower(filepath.Base(input[0:len(input)-len(ext)])) + ".glb"
}

func saveScene(root *scene.Node, s *converter.Session, output string, scale float32) error {
	opt := &converter.GLTFOption{
		Unlit:                  s.Config.Output.Unlit,
		AlphaCutoff:            s.Config.Output.AlphaCutoff,
		TextureFormat:          s.Config.Output.TextureFormat,
		TextureResolutionLimit: s.Config.Output.TextureResolutionLimit,
	}
	doc, err := converter.NewGLTFExporter(opt, s.Resolver).Convert(root)
	if err != nil {
		return err
	}
	if err := gltfutil.Scale(doc, scale); err != nil {
		return err
	}
	return gltfutil.Save(doc, output)
}

type summary struct {
	Root      string
	Nodes     int
	Meshes    int
	Triangles int
	Waypoints int
	WayEdges  int
	Assets    assets.Stats
}

func dumpSummary(w io.Writer, root *scene.Node, graph *waynet.Graph, stats assets.Stats) {
	sum := summary{Root: root.Name, Assets: stats}
	root.Walk(func(n *scene.Node) bool {
		sum.Nodes++
		for _, m := range n.Meshes {
			sum.Meshes++
			sum.Triangles += m.TriangleCount()
		}
		return true
	})
	if graph != nil {
		sum.Waypoints = graph.Len()
		sum.WayEdges = graph.EdgeCount()
	}
	spew.Fdump(w, sum)
}

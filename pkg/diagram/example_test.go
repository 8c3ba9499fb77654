package diagram_test

import (
	"fmt"

	"github.com/matzehuels/stackdiagram/pkg/diagram"
)

func ExampleBuilder() {
	b, err := diagram.Begin(diagram.Config{Title: "X", NoOutput: true})
	if err != nil {
		panic(err)
	}

	a, _ := b.Node("A", diagram.CategoryGeneric, nil)
	_ = b.EnterCluster("C", nil)
	db, _ := b.Node("B", diagram.CategoryDatabase, nil)
	_ = b.Connect(a, db, "uses", nil)
	_ = b.ExitCluster()

	d, err := b.Freeze()
	if err != nil {
		panic(err)
	}
	fmt.Print(d.DOT())
	// Output:
	// digraph G {
	//   graph [fontcolor="#2D3436", fontname="Sans-Serif", fontsize="15", label="X", labelloc="t", nodesep="0.60", pad="2.0", rankdir="LR", ranksep="0.75", splines="ortho"];
	//   node [fontcolor="#2D3436", fontname="Sans-Serif", fontsize="13"];
	//   edge [color="#7B8894"];
	//
	//   n0 [fillcolor="#FFFFFF", label="A", shape="box", style="rounded,filled"];
	//   subgraph cluster_0 {
	//     graph [bgcolor="#E5F5FD", fontname="Sans-Serif", fontsize="12", label="C", labeljust="l", pencolor="#AEB6BE", style="rounded"];
	//     n1 [fillcolor="#EAF2F8", label="B", shape="cylinder", style="filled"];
	//   }
	//
	//   n0 -> n1 [label="uses"];
	// }
}

func ExampleBuilder_ExitCluster() {
	b, _ := diagram.Begin(diagram.Config{Title: "unbalanced", NoOutput: true})
	err := b.ExitCluster()
	fmt.Println(err)
	// Output:
	// CONTRACT_VIOLATION: exit cluster with no open cluster
}

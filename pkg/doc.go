// Package pkg provides the libraries behind stackdiagram, a builder for
// architecture diagrams rendered with Graphviz.
//
// # Overview
//
// A diagram is a set of nodes grouped into nested clusters and connected by
// edges. The pkg directory is organized as:
//
//  1. [diagram] - the builder: scope stack, node handles, edges, DOT output
//  2. [render] - Graphviz layout, rsvg conversion and atomic file output
//  3. [definition] - TOML/YAML definition files replayed onto a builder
//  4. [catalog] - built-in diagrams written in Go
//  5. [cache], [store] - artifact cache and render history
//  6. [api] - the HTTP service
//
// # Architecture
//
//	definition file / catalog entry / Go code
//	         ↓
//	    [diagram.Builder] (EnterCluster, Node, Edge, ExitCluster)
//	         ↓
//	    DOT source
//	         ↓
//	    [render.Graphviz] (svg, png, pdf, dot, json)
//	         ↓
//	    <title>.<format> files
//
// # Quick Start
//
//	b, err := diagram.Begin(diagram.Config{Title: "Checkout"})
//	if err != nil {
//	    return err
//	}
//	api, _ := b.Node("API", diagram.CategoryService, nil)
//	b.EnterCluster("Data", nil)
//	db, _ := b.Node("Orders", diagram.CategoryDatabase, nil)
//	b.ExitCluster()
//	b.Connect(api, db, "reads", nil)
//	_, err = b.End(ctx, render.NewGraphviz(nil, nil))
package pkg

// Package diagram builds architecture diagrams as graphs of labeled nodes,
// nested clusters and labeled edges.
//
// # Overview
//
// A [Builder] assembles one diagram in a single pass:
//
//	b, err := diagram.Begin(diagram.Config{
//	    Title:   "X",
//	    Options: render.Options{Formats: []string{"png"}},
//	})
//	a, _ := b.Node("A", diagram.CategoryService, nil)
//	_ = b.EnterCluster("C", nil)
//	n, _ := b.Node("B", diagram.CategoryDatabase, nil)
//	_ = b.Connect(a, n, "uses", nil)
//	_ = b.ExitCluster()
//	out, err := b.End(ctx, render.NewGraphviz(nil, logger)) // writes X.png
//
// # Scopes
//
// Clusters are opened and closed on an explicit scope stack held by the
// builder. Nodes attach to the innermost open cluster and record the number
// of open clusters as their depth. Closing a cluster that was never opened,
// or ending a diagram with clusters still open, is a contract violation
// (error code CONTRACT_VIOLATION).
//
// # Handles
//
// [Builder.Node] returns a [NodeID] handle. Identity is the handle, not the
// label, so equal labels never merge. A handle is only accepted by the
// builder that created it; handles from other diagrams are rejected.
//
// # Styling
//
// Each node has a [Category] that selects a Graphviz shape and fill, plus
// free-form [Attrs]. Named presets such as [StyleNetworkBoundary] are plain
// attribute sets.
//
// # Output
//
// [Diagram.DOT] serializes the finished graph for the layout engine, and
// [Diagram.JSON] produces a structural description. Rendering is delegated
// to a [render.Renderer].
package diagram

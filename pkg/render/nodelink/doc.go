// Package nodelink renders node graphs as Graphviz node-link diagrams.
//
// # Overview
//
// Every node becomes a record whose top row holds its input sockets and
// whose bottom row holds its outputs. Wires connect the socket ports, so
// the diagram mirrors what a node editor shows. Frames become clusters.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Passing an engine.ExecState in [Options] colours nodes by their last
// evaluation: failed, dirty or cached.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink

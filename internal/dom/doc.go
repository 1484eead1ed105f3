// Package dom provides the document helpers the renderer builds on:
// parsing and rendering, metadata readers, class-name folding, block
// construction and block configuration, node manipulation, and document
// order comparison.
//
// Design decision: Selection is done with goquery because the decorator and
// the product normalizer are written in terms of CSS selectors. Node
// construction and tree surgery use golang.org/x/net/html directly since
// goquery has no API for building detached nodes.
package dom

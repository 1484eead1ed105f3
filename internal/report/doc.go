// Package report writes render reports in JSON, Markdown and plain text.
//
// Every writer handles a single RenderReport and the Summary of a batch
// render. MultiWriter fans a report out to several writers, for example the
// terminal and a report file.
package report

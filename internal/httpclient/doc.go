// Package httpclient provides the HTTP client used for the content service
// (index pages, documents, asset checks) and the catalog service.
//
// Design decision: One small client wraps net/http with a base URL, fixed
// headers, a body size limit and optional SOCKS5 routing via
// golang.org/x/net/proxy. Callers get typed errors (*StatusError) instead of
// raw responses, which keeps retry decisions in the index cache simple.
package httpclient

// Package logx is the structured logging layer shared by hioload-exec
// packages.
//
// It wraps zerolog behind a small value type so components can accept a
// Logger in their configuration without caring how (or whether) output is
// produced. The zero Logger discards everything.
package logx

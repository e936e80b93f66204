// Package statsview launches an optional HTTP server offering runtime
// statistics of the machine process. The server is only built when the
// statsview build constraint is present:
//
//	go build -tags statsview ./cmd/gochip8
//
// After launch, graphical statistics are viewable at
//
//	localhost:12600/debug/statsview
//
// and standard Go pprof statistics at
//
//	localhost:12600/debug/pprof/
package statsview

// Package integration loads real plugin modules built with
// -buildmode=plugin. Its tests need the go tool and run with
//
//	go test -tags integration ./pkg/plugins/integration
package integration

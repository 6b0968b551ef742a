// Command fvinspect builds a synthetic in-memory index, sorts and filters
// it through the field value cache and reports what the cache built.
//
// Usage:
//
//	fvinspect [flags]
//
// The corpus is described by a JSONC file (--config) or by flags; flags
// win over the file. With --reopen, a second generation that drops the
// first segment and adds a new one is opened to show carried values.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

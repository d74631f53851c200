// Command downloader fetches the files listed in XML manifests, verifies
// them against their checksums and refetches corrupted copies once.
//
// Usage:
//
//	downloader [flags] manifest.xml...
//
// Exit status is 0 on success or when another instance holds the lock,
// 1 when interrupted, 2 for a malformed invocation and 99 for any other
// fault.
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

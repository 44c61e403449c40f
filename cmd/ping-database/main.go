// Command ping-database keeps a hosted postgres database awake.
// It reads DATABASE_URL, runs one trivial query and exits 0 on success.
package main

import (
	"context"
	"os"

	"github.com/tenantgate/tenantgate/internal/keepalive"
)

func main() {
	os.Exit(keepalive.Main(context.Background(), keepalive.DialPgx, os.Stdout, os.Stderr))
}

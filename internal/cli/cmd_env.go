package cli

import (
	"context"
	"fmt"

	"github.com/sqlauto/sqlauto/internal/cfg"
)

// execEnv prints the resolved settings with the password masked.
func execEnv(_ context.Context, st *state, c cfg.Config, _ *rootFlags) error {
	for _, kv := range c.Redacted() {
		fmt.Fprintf(st.stdout, "%s=%q\n", kv[0], kv[1])
	}
	return nil
}

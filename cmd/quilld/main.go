// Command quilld publishes queued content to X on a fixed daily cadence.
//
// It takes no flags. Configuration comes from the TOML file resolved by
// config.Load, with credentials optionally supplied through the environment or
// a .env file in the working directory.
package main

import (
	"context"
	"fmt"
	"os"

	"quill/internal/config"
	"quill/internal/daemonrun"
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	if err := loadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "quilld: load .env: %v\n", err)
		return 1
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "quilld: load config: %v\n", err)
		return 1
	}

	if err := daemonrun.Run(ctx, cfg, daemonrun.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "quilld: %v\n", err)
		return 1
	}
	return 0
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/medpages/internal/config"
	"github.com/teemow/medpages/internal/server"
	"github.com/teemow/medpages/internal/tools/common"
	"github.com/teemow/medpages/internal/tools/medical_tools"
)

// newServerContext loads the configuration and builds a server context that
// reads credentials from the same loader on every call.
func newServerContext(ctx context.Context) (*server.ServerContext, error) {
	loader, err := config.NewLoader()
	if err != nil {
		return nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	sc, err := server.NewServerContext(ctx, cfg, loader)
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return sc, nil
}

// runTool builds a toolkit, runs fn with it and prints the result. A failed
// result is printed too and turned into a non-zero exit.
func runTool(cmd *cobra.Command, toolName string, fn func(ctx context.Context, tk *medical_tools.Toolkit) common.Result) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sc, err := newServerContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = sc.Shutdown()
	}()

	result := fn(ctx, medical_tools.NewToolkit(sc))
	fmt.Fprintln(cmd.OutOrStdout(), result.Text)
	if result.Failed() {
		return fmt.Errorf("%s failed (%s)", toolName, result.Kind)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/goover/docudesk/cmd/docudesk/cli"
	"github.com/goover/docudesk/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

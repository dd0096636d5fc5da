package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackwell-systems/devboot/internal/app"
	"github.com/blackwell-systems/devboot/internal/output"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := app.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, output.Error(err))
		os.Exit(1)
	}
}

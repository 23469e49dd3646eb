// @title         tokeisrv
// @version       0.1.0
// @description   Code statistics badges for public git repositories

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tokeisrv/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Get().Error().Err(err).Msg("tokeisrv stopped")
		stop()
		os.Exit(1)
	}
	stop()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"budge/statements/cmd/categorize"
	"budge/statements/cmd/export"
	"budge/statements/cmd/process"
	"budge/statements/cmd/reprocess"
	"budge/statements/cmd/root"
	"budge/statements/cmd/schedule"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(process.Cmd)
	root.Cmd.AddCommand(reprocess.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(schedule.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.Cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

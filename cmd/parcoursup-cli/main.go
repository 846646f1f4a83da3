package main

import (
	"context"
	"parcoursupstats/cmd/parcoursup-cli/commands"
	"parcoursupstats/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext(context.Background())
	commands.ExecuteContext(ctx)
}

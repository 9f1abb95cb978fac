// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command shotctl inspects and exports the persisted shot list from a terminal.
//
// It opens the same snapshot store as the API server, using the same
// environment variables, so it can list projects or write a CSV shot chart
// without the server running.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

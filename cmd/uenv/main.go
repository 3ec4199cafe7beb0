// cmd/uenv/main.go
package main

import (
	"context"
	"os"

	"github.com/arc-language/uenv/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"

	"github.com/MrSnakeDoc/pulse/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}

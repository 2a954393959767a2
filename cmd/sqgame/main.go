package main

import (
	"context"

	"github.com/mcoot/squidgame/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}

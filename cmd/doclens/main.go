package main

import (
	"github.com/doclens/doclens/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}

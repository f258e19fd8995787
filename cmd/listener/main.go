package main

import (
	"github.com/vietddude/bridge-listener/internal/cli"
)

func main() {
	cli.Execute()
}

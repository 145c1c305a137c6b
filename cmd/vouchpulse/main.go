package main

import (
	"github.com/vouchlab/vouchpulse/pkg/cli"
)

func main() {
	cli.Execute()
}

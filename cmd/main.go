package main

import "github.com/canopy-network/mnvalidator/cmd/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/ethpandaops/execution-body/cmd"

func main() {
	cmd.Execute()
}

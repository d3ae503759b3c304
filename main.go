package main

import "github.com/pthm-cable/flowpaint/cli"

func main() {
	cli.Execute()
}

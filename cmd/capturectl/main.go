package main

import "depthcapture/internal/cli"

func main() {
	cli.Execute()
}

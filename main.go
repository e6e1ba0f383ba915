package main

import "dnsjumper/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/mvp-joe/fieldgraph/internal/cli"

func main() {
	cli.Execute()
}

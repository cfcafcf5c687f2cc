package main

import "github.com/LeJamon/goRingSim/internal/cli"

func main() {
	cli.Execute()
}

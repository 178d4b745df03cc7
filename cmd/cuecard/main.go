package main

import "github.com/tessro/cuecard/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/vietddude/renderwatch/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/gensec-template/gensec-template/internal/cli"

func main() {
	cli.Execute()
}

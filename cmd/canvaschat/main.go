package main

import "github.com/canvasgpt/canvaschat/internal/cli"

func main() {
	cli.Execute()
}

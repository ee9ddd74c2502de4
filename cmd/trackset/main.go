package main

import "github.com/chazu/trackset/cmd/trackset/cmd"

func main() {
	cmd.Execute()
}

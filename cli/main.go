package main

import "github.com/zfogg/chirp/cli/internal/cmd"

func main() {
	cmd.Execute()
}

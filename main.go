package main

import "github.com/kozaktomas/barface/cmd"

func main() {
	cmd.Execute()
}

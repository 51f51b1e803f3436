package main

import "github.com/kozaktomas/band-gallery/cmd"

func main() {
	cmd.Execute()
}

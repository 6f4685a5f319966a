package main

import "github.com/fyndra/outfitscout/cmd"

func main() {
	cmd.Execute()
}

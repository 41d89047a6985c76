package main

import "github.com/stitchlabs/promptdash/cmd"

func main() {
	cmd.Execute()
}

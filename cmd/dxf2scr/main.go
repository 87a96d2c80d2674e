package main

import "github.com/OpenTraceLab/OpenTraceDXF/cmd/dxf2scr/cmd"

func main() {
	cmd.Execute()
}

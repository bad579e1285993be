package main

import "github.com/rezmoss/simpletracker/cmd/simpletracker/root"

func main() {
	root.Execute()
}

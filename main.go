package main

import "github.com/notargets/wdmerger/cmd"

func main() {
	cmd.Execute()
}

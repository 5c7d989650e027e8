package main

import "github.com/bcdannyboy/dhedge/cli"

func main() {
	cli.Execute()
}

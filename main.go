package main

import "github.com/zeruxbrawl/zeruxbot/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/selimozcann/LinkSentry/cmd"

func main() {
	cmd.Execute()
}

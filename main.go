package main

import "github.com/klytics/sheetchat/cmd"

func main() {
	cmd.Execute()
}

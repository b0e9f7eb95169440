// Package main is the entry point for the bookchat server.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/bookwise/bookchat/internal/chatbot"
)

func main() {
	chatbot.NewApp().Run()
}

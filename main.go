package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shandysiswandi/authgate/internal/app"
)

const usage = `usage: authgate <command>

commands:
  login    sign in with email, password and a one-time code
  status   show the stored session
  logout   sign out and clear the stored session
  serve    run the mock auth backend
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if os.Args[1] == "serve" {
		application := app.NewServer() // Initialize the backend
		wait := application.Start()    // Start the application and wait for the termination signal
		<-wait                         // Wait for the application to receive a termination signal
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		application.Stop(ctx) // Stop the application gracefully
		return
	}

	switch os.Args[1] {
	case app.CmdLogin, app.CmdStatus, app.CmdLogout:
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	application := app.NewClient(os.Stdin, os.Stdout)
	err := application.Run(os.Args[1])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	application.Stop(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

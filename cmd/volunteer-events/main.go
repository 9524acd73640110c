package main

import (
	"os"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}

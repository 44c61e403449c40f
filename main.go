package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tenantgate/tenantgate/app"
)

func main() {
	err := app.Execute(context.Background())

	var exit app.ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

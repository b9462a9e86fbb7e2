package main

import (
	"fmt"
	"os"

	"crelay/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{Indent: "  "}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

// Package main is the entry point for the tennismetrics CLI tool, which
// builds career, head-to-head and composite index tables from historical
// tennis match results.
package main

import "github.com/pable/go-tennis-metrics/cmd"

func main() {
	cmd.Execute()
}

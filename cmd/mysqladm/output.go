package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"mysqladm/protocol"
)

// printJSON marshals v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportBatch renders a map of per-item Failures (from any of the batch
// response kinds) either as JSON or as one line per item, and returns a
// non-nil error if any item failed so the caller can set a non-zero exit
// code — "every command returns 0 on complete success, non-zero if any
// item in a batch failed".
func reportBatch(results map[string]protocol.Failure) error {
	if flagJSON {
		return printJSON(results)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := false
	for _, name := range names {
		f := results[name]
		if f.IsZero() {
			fmt.Printf("%s: ok\n", name)
			continue
		}
		failed = true
		fmt.Printf("%s: %s (%s)\n", name, f.Message, f.Kind)
	}
	if failed {
		return fmt.Errorf("one or more items failed")
	}
	return nil
}

// Command dtrsim lowers a DAG fixture and drives it through the JIT
// simulator. Grounded on
// junjiewwang-perf-analysis/cmd/cli/main.go's thin-main-delegates-to-cmd
// shape.
package main

import "dtrsim/cmd/dtrsim/cmd"

func main() {
	cmd.Execute()
}

// Command vmsim runs workloads on the demand-paged virtual memory simulator.
package main

import "github.com/sarchlab/vmsim/vmsim/cmd"

func main() {
	cmd.Execute()
}

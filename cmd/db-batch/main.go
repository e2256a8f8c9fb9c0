// db-batch - unattended batch runner for DesignBuilder model files.
package main

import (
	"github.com/DesignBuilderSoftware/db-batch/internal/cli"
)

func main() {
	cli.Execute()
}

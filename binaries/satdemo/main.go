package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/saturation/client/cli"
	saterrors "github.com/twitter/saturation/common/errors"
	"github.com/twitter/saturation/common/log/hooks"
)

// A command-line tool for sizing worker saturation workloads
func main() {
	log.AddHook(hooks.NewContextHook())

	cl := cli.NewSimpleCLIClient()
	if err := cl.Exec(); err != nil {
		log.Errorf("error running satdemo: %v", err)
		os.Exit(int(saterrors.GetExitCode(err)))
	}
}

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/edigermatthew/wonder-alt/cmd"
	"github.com/edigermatthew/wonder-alt/host/app"
)

var (
	versionName = ""
	commitSHA   = ""
	buildTime   = ""
)

func main() {
	buildInfo := app.BuildInfo{
		RuntimeVer: runtime.Version(),
		BinVersion: versionName,
		CommitSHA:  commitSHA,
		BuildTime:  buildTime,
		BuildArch:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if err := cmd.Execute(buildInfo); err != nil {
		os.Exit(1)
	}
}

package flags

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// NewApp creates a cli app with sane defaults and version metadata wired from
// the build.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Name = filepath.Base(os.Args[0])
	app.Usage = usage
	app.Version = versionWithCommit(gitCommit, gitDate)
	return app
}

func versionWithCommit(gitCommit, gitDate string) string {
	version := "1.0.0"
	if len(gitCommit) >= 8 {
		version += "-" + gitCommit[:8]
	}
	if gitDate != "" {
		version += fmt.Sprintf(" (%s)", gitDate)
	}
	return version
}

// Command dbdesk serves a web API for administering MySQL and PostgreSQL
// databases.
package main

import (
	"os"

	"github.com/koustreak/dbdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

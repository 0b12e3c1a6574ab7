// Command accessadmin serves the community access administration API.
//
//go:generate swag init --generalInfo main.go --dir ./,../../internal/api/handler --output ../../docs --outputTypes go
package main

import (
	"context"
	"os"

	"github.com/gatehouse/accessadmin/internal/cli"
)

//	@title			Access Admin API
//	@version		1.0
//	@description	Community access administration: communities, addresses, residents, access codes and access logs.
//	@BasePath		/
func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

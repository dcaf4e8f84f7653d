// cmd/readpump/main.go
package main

import (
	"readpump/internal/app"
	"readpump/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}

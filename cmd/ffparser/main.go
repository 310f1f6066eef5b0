package main

import "github.com/fpawel/factforecast/internal/app"

func main() {
	app.Main()
}

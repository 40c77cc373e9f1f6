// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package driver_test

import (
	"log"

	"github.com/gviegas/retained/driver"
	_ "github.com/gviegas/retained/driver/headless"
)

var (
	drv driver.Driver
	gpu driver.GPU
)

func init() {
	// Select a driver to use.
	drivers := driver.Drivers()
drvLoop:
	for i := range drivers {
		switch drivers[i].Name() {
		case "headless":
			drv = drivers[i]
			break drvLoop
		}
	}
	if drv == nil {
		log.Fatal("driver.Drivers(): driver not found")
	}
	var err error
	gpu, err = drv.Open()
	if err != nil {
		log.Fatal(err)
	}
}

var (
	// Vertex positions (CCW).
	triPos = [3 * 3]float32{
		-1, -1, 0.5,
		+1, -1, 0.5,
		+0, +1, 0.5,
	}

	triVS = `attribute vec3 position;
uniform mat4 mvp;
void main() {
	gl_Position = mvp * vec4(position, 1.0);
}
`
	triFS = `precision mediump float;
uniform vec4 color;
void main() {
	gl_FragColor = color;
}
`
)

// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Triangle opens a window and draws a spinning triangle
// with the gl33 driver.
//
// Usage:
//
//	triangle [-config file.toml] [-v]
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/retained/driver/gl33"
	"github.com/gviegas/retained/engine"
)

const (
	vertexShader = `attribute vec3 position;
attribute vec3 color;
uniform mat4 viewProj;
uniform mat4 model;
varying vec3 vColor;
void main() {
	vColor = color;
	gl_Position = viewProj * model * vec4(position, 1.0);
}
`
	fragmentShader = `varying vec3 vColor;
uniform float alpha;
void main() {
	gl_FragColor = vec4(vColor, alpha);
}
`
)

var (
	configFile = flag.String("config", "", "TOML `file` to configure the engine with")
	verbose    = flag.Bool("v", false, "log engine events")
)

func init() {
	// GL calls must come from the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	if *verbose {
		engine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := engine.DefaultConfig()
	cfg.Driver = "gl33"
	if *configFile != "" {
		f, err := os.Open(*configFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg, err = engine.LoadConfig(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}

	if err := glfw.Init(); err != nil {
		log.Fatal(err)
	}
	defer glfw.Terminate()
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(800, 600, "Triangle", nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	dev, err := engine.Open(&cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Close()
	if gpu, ok := dev.GPU().(*gl33.Driver); ok {
		gpu.SetDrawableSize(window.GetFramebufferSize())
		window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) { gpu.SetDrawableSize(w, h) })
	}

	inst, err := setup(dev)
	if err != nil {
		log.Fatal(err)
	}

	stage := dev.Stage("main")
	dev.Listen(func(e engine.Event) {
		if e == engine.EventResize {
			w, h := dev.OutputSize()
			stage.Projection = perspective(w, h)
		}
	})
	w, h := dev.OutputSize()
	stage.Projection = perspective(w, h)

	angle := float32(0)
	for !window.ShouldClose() {
		angle += 0.01
		m := mgl32.HomogRotate3DY(angle)
		inst.SetTransform(&m)
		dev.Frame()
		window.SwapBuffers()
		glfw.PollEvents()
	}
}

func perspective(w, h int) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(60), float32(w)/float32(max(h, 1)), 0.1, 100)
}

// setup creates the stage, material, pass and instance
// that draw the triangle.
func setup(dev *engine.Device) (*engine.Instance, error) {
	stage, err := dev.NewStage("main", "")
	if err != nil {
		return nil, err
	}
	stage.View = mgl32.LookAtV(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	stage.Clear.ColorValue = mgl32.Vec4{0.1, 0.1, 0.12, 1}
	if err := stage.SetUniform("viewProj", engine.LiveViewProjection); err != nil {
		return nil, err
	}

	pass, err := dev.NewPass(vertexShader, fragmentShader, nil)
	if err != nil {
		return nil, err
	}
	pass.State.Polygon.Cull = false
	mat, err := dev.NewMaterial("vertex color", "")
	if err != nil {
		return nil, err
	}
	if err := mat.SetPass("main", pass); err != nil {
		return nil, err
	}
	if err := mat.SetUniform("alpha", float32(1)); err != nil {
		return nil, err
	}

	mesh := dev.NewMesh()
	if err := mesh.SetAttribute("position", engine.AttrVec3, []float32{
		-0.8, -0.6, 0,
		0.8, -0.6, 0,
		0, 0.8, 0,
	}); err != nil {
		return nil, err
	}
	if err := mesh.SetAttribute("color", engine.AttrVec3, []float32{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}); err != nil {
		return nil, err
	}
	inst, err := dev.NewInstance(mat, mesh, nil, true)
	if err != nil {
		return nil, err
	}
	if err := inst.SetUniform("model", engine.LiveTransform); err != nil {
		return nil, err
	}
	if err := dev.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

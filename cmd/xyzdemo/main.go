// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command xyzdemo opens a window showing a lit, shadowed scene with
// opaque, transparent and instanced objects. Drag to orbit, shift-drag
// to pan, scroll to zoom and click to pick. With -deferred the opaque
// objects are lit in a deferred light pass.
package main

import (
	"flag"
	"image"
	"image/color"
	"log/slog"
	"os"

	"cogentcore.org/render/base/errors"
	"cogentcore.org/render/gpu"
	"cogentcore.org/render/window"
	"cogentcore.org/render/xyz"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	config := flag.String("config", "", "gpu config file (.toml, .yaml)")
	deferred := flag.Bool("deferred", false, "use the deferred renderer")
	flag.Parse()
	if err := run(*config, *deferred); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// frameRenderer is a forward or deferred renderer.
type frameRenderer interface {
	Render(cam *xyz.Camera, lights []*xyz.Light, objects []xyz.Renderable, target *gpu.RenderTarget) (*xyz.FrameReport, error)
	SetConfig(cf *gpu.Config)
}

func run(config string, deferred bool) error {
	cfg := gpu.NewConfig()
	if config != "" {
		var err error
		if cfg, err = gpu.LoadConfig(config); err != nil {
			return err
		}
	}
	win, err := window.New("xyz demo", 1024, 768, cfg)
	if err != nil {
		return err
	}
	defer win.Release()
	ctx := win.Context()

	sc, err := newScene(ctx)
	if err != nil {
		return err
	}
	screen := win.Screen()
	cam := xyz.NewCamera(screen.Viewport())
	cam.SetPosition(mgl32.Vec3{0, 4, 12})
	win.Navigate(cam, func(sx, sy float32) {
		if hit, ok := xyz.Pick(cam, sx, sy, sc.objects); ok {
			slog.Info("picked", "object", hit.Object.AsObject().Name, "instance", hit.Instance, "point", hit.Point, "distance", hit.Distance)
		}
	})

	var rend frameRenderer = xyz.NewRenderer(ctx)
	if deferred {
		dr := xyz.NewDeferredRenderer(ctx)
		defer dr.Release()
		rend = dr
	}
	var cw *gpu.ConfigWatcher
	if config != "" {
		if cw, err = gpu.WatchConfig(config); err != nil {
			return err
		}
		defer cw.Close()
	}
	return win.Run(func() error {
		if cf := cw.Poll(); cf != nil {
			slog.Info("reloaded config", "file", config)
			rend.SetConfig(cf)
		}
		report, err := rend.Render(cam, sc.lights, sc.objects, screen)
		if err != nil {
			return err
		}
		errors.Log(report.Err())
		return nil
	})
}

type scene struct {
	lights  []*xyz.Light
	objects []xyz.Renderable
}

func newScene(ctx *gpu.Context) (*scene, error) {
	sc := &scene{}
	sun := xyz.NewDirLight("sun", 1, xyz.DirectSun)
	sun.Pos = mgl32.Vec3{3, 8, 4}
	if err := sun.EnableShadows(ctx, ctx.Config.ShadowMapSize); err != nil {
		return nil, err
	}
	bulb := xyz.NewPointLight("bulb", 1, xyz.Halogen)
	bulb.Pos = mgl32.Vec3{-3, 2, 2}
	sc.lights = []*xyz.Light{xyz.NewAmbientLight("ambient", .2, xyz.DirectSun), sun, bulb}

	plane, err := xyz.NewGeometry(ctx, xyz.NewPlane(20, 20, 1, 1))
	if err != nil {
		return nil, err
	}
	box, err := xyz.NewGeometry(ctx, xyz.NewBox(1, 1, 1, 1))
	if err != nil {
		return nil, err
	}
	sphere, err := xyz.NewGeometry(ctx, xyz.NewSphere(.6, 32))
	if err != nil {
		return nil, err
	}

	checks, err := gpu.NewTextureFromImage(ctx, checkerboard(256, 32), gpu.Sampler{Mipmap: true, WrapS: gpu.Repeat, WrapT: gpu.Repeat})
	if err != nil {
		return nil, err
	}
	floorMat := xyz.NewPhongMaterial(color.RGBA{255, 255, 255, 255})
	floorMat.Texture = checks
	floorMat.Tiling.Repeat = mgl32.Vec2{10, 10}
	floor := xyz.NewObject("floor", plane, floorMat)
	floor.Transform = mgl32.HomogRotate3DX(mgl32.DegToRad(-90))

	red := xyz.NewObject("red box", box, xyz.NewPhongMaterial(color.RGBA{200, 40, 40, 255}))
	red.SetPosition(mgl32.Vec3{-1.5, .5, 0})
	ball := xyz.NewObject("ball", sphere, xyz.NewPhysicalMaterial(color.RGBA{220, 180, 60, 255}, .3))
	ball.SetPosition(mgl32.Vec3{1.5, .6, 0})
	glass := xyz.NewObject("glass", box, xyz.NewPhongMaterial(color.RGBA{80, 160, 255, 100}))
	glass.Transform = mgl32.Translate3D(0, 1, 2).Mul4(mgl32.Scale3D(2, 2, .1))

	var posts []mgl32.Mat4
	for i := range 8 {
		posts = append(posts, mgl32.Translate3D(float32(i)-3.5, .5, -4).Mul4(mgl32.Scale3D(.3, 1, .3)))
	}
	row, err := xyz.NewInstancedObject(ctx, "posts", box, xyz.NewPhongMaterial(color.RGBA{120, 200, 120, 255}), posts)
	if err != nil {
		return nil, err
	}
	sc.objects = []xyz.Renderable{floor, red, ball, glass, row}
	return sc, nil
}

// checkerboard returns a size x size image of squares of the given size.
func checkerboard(size, square int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			c := color.RGBA{220, 220, 220, 255}
			if (x/square+y/square)%2 == 1 {
				c = color.RGBA{90, 90, 90, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

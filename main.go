package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mawasi/wayfarer/input"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug mode")
	touch := flag.Bool("touch", false, "force the touch input scheme")
	pad := flag.Bool("pad", false, "force the gamepad input scheme")
	patrol := flag.Bool("patrol", false, "run the demo patrol command script")
	profiles := flag.String("profiles", "", "path to a speed profiles yaml (default: embedded)")
	flag.Parse()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("wayfarer")
	ebiten.SetTPS(60)

	scheme := input.DetectScheme()
	if *touch {
		scheme = input.SchemeTouch
	}
	if *pad {
		scheme = input.SchemeGamepad
	}

	game, err := NewGame(*profiles, scheme, *patrol, *debug)
	if err != nil {
		log.Fatal(err)
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

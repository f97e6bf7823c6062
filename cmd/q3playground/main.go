// Command q3playground loads a Quake 3 BSP map and walks its world with
// CPM-style movement, using the core bspfile/bspquery/trace/movement/
// spawn packages against a thin GLFW+GL renderer collaborator.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"

	"github.com/samuelyuan/q3playground/bspfile"
	"github.com/samuelyuan/q3playground/bspquery"
	"github.com/samuelyuan/q3playground/client"
	"github.com/samuelyuan/q3playground/movement"
	"github.com/samuelyuan/q3playground/render"
	"github.com/samuelyuan/q3playground/spawn"
)

func init() {
	// GLFW/GL calls must run on the thread that owns the OS window.
	runtime.LockOSThread()
}

var (
	flagWindowed     bool
	flagDisplay      int
	flagTessLevel    int
	flagWindowWidth  int
	flagWindowHeight int
)

var rootCmd = &cobra.Command{
	Use:   "q3playground /path/to/map.bsp",
	Short: "Walk a Quake 3 BSP map with CPM-style movement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func main() {
	rootCmd.Flags().BoolVar(&flagWindowed, "window", false, "windowed (otherwise fullscreen on main display)")
	rootCmd.Flags().IntVarP(&flagDisplay, "display", "d", 0, "display index")
	rootCmd.Flags().IntVarP(&flagTessLevel, "tesslevel", "t", 5, "tessellation level (patches)")
	rootCmd.Flags().IntVarP(&flagWindowWidth, "width", "w", 1280, "window width")
	rootCmd.Flags().IntVarP(&flagWindowHeight, "height", "h", 720, "window height")

	// pflag reads a single-dash word as a run of shorthands, so the
	// single-dash -window spelling is mapped onto the long --window flag.
	for i, arg := range os.Args {
		if arg == "-window" {
			os.Args[i] = "--window"
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string) error {
	m, err := bspfile.Load(path)
	if err != nil {
		return fmt.Errorf("q3playground: %w", err)
	}

	entities := spawn.Parse(m.Entities)
	start := spawn.FindPlayerStart(entities)

	state := &movement.PlayerState{
		Pos: start.Pos,
		Yaw: start.Yaw,
	}

	win, err := client.NewWindowHandler(flagWindowWidth, flagWindowHeight, flagDisplay, flagWindowed, "q3playground")
	if err != nil {
		return fmt.Errorf("q3playground: %w", err)
	}
	defer win.Terminate()

	renderer, err := render.New(m)
	if err != nil {
		return fmt.Errorf("q3playground: %w", err)
	}
	defer renderer.Close()
	renderer.SetTessellationLevel(flagTessLevel)

	for !win.ShouldClose() {
		win.StartFrame()

		in := win.InputHandler.BuildInput()
		dt := win.DeltaTime()
		if dt > 0 {
			movement.Tick(m, state, in, float32(dt))
		}

		leaf := bspquery.FindLeaf(m, state.Pos)
		cluster := -1
		if leaf >= 0 && leaf < len(m.Leaves) {
			cluster = int(m.Leaves[leaf].Cluster)
		}

		width, height := win.Size()
		view := viewMatrix(state)
		projection := mgl32.Perspective(mgl32.DegToRad(90), float32(width)/float32(height), 1, 4096)

		renderer.Draw(m, cluster, view, projection)
	}

	return nil
}

// viewMatrix builds the camera transform from the player's pos/yaw/pitch
// using the renderer's fixed "quake matrix" basis (forward=+x, left=+y,
// up=+z); the rotation sign convention matches movement.rotateWish.
func viewMatrix(s *movement.PlayerState) mgl32.Mat4 {
	// quake maps +x (forward) to GL -z, +y (left) to GL -x, +z (up) to GL +y.
	quake := mgl32.Mat4{0, 0, -1, 0, -1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1}
	rot := mgl32.HomogRotate3DY(-s.Pitch).Mul4(mgl32.HomogRotate3DZ(s.Yaw))
	translate := mgl32.Translate3D(-s.Pos[0], -s.Pos[1], -s.Pos[2])
	return quake.Mul4(rot).Mul4(translate)
}

package cmd

import (
	"fmt"
	"math"
	"os"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/unit"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDXF/internal/logger"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/preview"
)

var previewFlags conversionFlags

var previewCmd = &cobra.Command{
	Use:   "preview <file.dxf>",
	Short: "Show the converted drawing in a window",
	Long: `Convert a DXF drawing with the same settings as convert and show the
resulting commands in an interactive window. Nothing is written to disk.

Controls:
  Left Click / R    - Rotate 90°
  Right Click / F   - Flip
  Scroll Wheel      - Zoom in/out
  Space             - Fit drawing to window
  Q / Escape        - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewFlags.register(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	filename := args[0]

	c, err := convertFile(cmd, &previewFlags, filename)
	if err != nil {
		return err
	}

	doc := c.result.Document
	bbox := preview.Bounds(doc)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %s\n", filename)
	fmt.Fprintf(out, "  Commands: %d\n", doc.Len())
	fmt.Fprintf(out, "  Skipped:  %d\n", c.result.Stats.Skipped)
	if !bbox.IsEmpty() {
		fmt.Fprintf(out, "  Size: %.3f x %.3f\n", bbox.Width(), bbox.Height())
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title("dxf2scr - " + filename))
		w.Option(app.Size(unit.Dp(1000), unit.Dp(800)))

		if err := runPreviewWindow(w, preview.NewRenderer(doc), bbox); err != nil {
			logger.L().Error("preview window failed", "err", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}

func runPreviewWindow(w *app.Window, r *preview.Renderer, bbox geom.BoundingBox) error {
	camera := preview.NewCamera(1000, 800)
	if !bbox.IsEmpty() {
		camera.Fit(bbox)
	}

	var ops op.Ops
	// Pointer events are delivered to this tag through the input area laid
	// over the drawing.
	input := new(int)

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err

		case app.FrameEvent:
			ops.Reset()

			gtx := layout.Context{
				Ops:         &ops,
				Constraints: layout.Exact(e.Size),
				Metric:      e.Metric,
				Now:         e.Now,
				Source:      e.Source,
			}

			camera.Resize(e.Size.X, e.Size.Y)

			for {
				ev, ok := gtx.Event(key.Filter{})
				if !ok {
					break
				}
				if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
					if handlePreviewKey(ke.Name, camera, bbox) {
						return nil
					}
					w.Invalidate()
				}
			}

			for {
				ev, ok := gtx.Event(pointerFilter(input))
				if !ok {
					break
				}
				pe, ok := ev.(pointer.Event)
				if !ok {
					continue
				}
				switch pe.Kind {
				case pointer.Press:
					if pe.Buttons == pointer.ButtonPrimary {
						camera.Rotate(90)
					} else if pe.Buttons == pointer.ButtonSecondary {
						camera.Flip()
					}
				case pointer.Scroll:
					camera.ZoomAt(float64(pe.Position.X), float64(pe.Position.Y), zoomFactor(pe.Scroll.Y))
				}
				w.Invalidate()
			}

			r.Render(gtx, camera)

			area := clip.Rect{Max: e.Size}.Push(gtx.Ops)
			event.Op(gtx.Ops, input)
			area.Pop()

			e.Frame(&ops)
		}
	}
}

// pointerFilter selects the clicks and vertical scrolls delivered to tag
func pointerFilter(tag event.Tag) pointer.Filter {
	return pointer.Filter{
		Target:  tag,
		Kinds:   pointer.Press | pointer.Scroll,
		ScrollY: pointer.ScrollRange{Min: math.MinInt, Max: math.MaxInt},
	}
}

// zoomFactor maps a scroll distance to a camera zoom factor, limited so that
// one event never more than doubles or halves the scale
func zoomFactor(scrollY float32) float64 {
	return min(max(1+float64(scrollY)*0.1, 0.5), 2)
}

// handlePreviewKey applies a key press to the camera and reports whether to quit
func handlePreviewKey(k key.Name, camera *preview.Camera, bbox geom.BoundingBox) bool {
	switch k {
	case key.NameEscape, "Q":
		return true
	case "F":
		camera.Flip()
	case "R":
		camera.Rotate(90)
	case key.NameLeftArrow:
		camera.Rotate(-90)
	case key.NameSpace:
		if !bbox.IsEmpty() {
			camera.Fit(bbox)
		}
	}
	return false
}

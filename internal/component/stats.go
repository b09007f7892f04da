package component

import (
	"fmt"

	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

// Stats shows frame and world counters in a UI window.
type Stats struct {
	Title string `yaml:"title"`
}

func (s *Stats) OnGUI(c *world.Context, ui *render.UI) error {
	title := s.Title
	if title == "" {
		title = "Stats"
	}
	w := c.World
	d := w.Diagnostics()
	ui.Window(title, func(u *render.UI) {
		u.Labelf("frame %d  dt %s", w.Clock().Frames(), c.Delta())
		u.Labelf("entities %d  components %d", w.EntityCount(), w.Storage().Len())
		u.Labelf("picks %d  stale %d", d.PickRequests, d.StalePicks)
		if d.CallbackErrors > 0 {
			u.Colored(fmt.Sprintf("callback errors %d", d.CallbackErrors), render.Style{Fg: render.Color{R: 255, G: 80, B: 80}, Bold: true})
		}
	})
	return nil
}

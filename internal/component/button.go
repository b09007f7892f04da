package component

import (
	"github.com/tandem/engine/internal/core/ecs"
	"github.com/tandem/engine/internal/render"
	"github.com/tandem/engine/internal/world"
)

// Button listens for clicks on its entity and lists itself in the
// "Buttons" window. The press count is mirrored into the "presses"
// entity property.
type Button struct {
	Text string `yaml:"text"`

	// OnPress runs after each click. Not settable from scene files.
	OnPress func(c *world.Context) error `yaml:"-"`

	presses int
}

func (b *Button) Init(c *world.Context) error {
	c.World.NotifyFor(c.Owner, ecs.EventClick)
	return nil
}

func (b *Button) Presses() int { return b.presses }

func (b *Button) OnClick(c *world.Context) error {
	b.presses++
	c.Entity().SetProperty("presses", b.presses)
	c.Log().Debug("button pressed")
	if b.OnPress != nil {
		return b.OnPress(c)
	}
	return nil
}

func (b *Button) OnGUI(c *world.Context, ui *render.UI) error {
	text := b.Text
	if text == "" {
		text = c.Entity().Name
	}
	ui.Window("Buttons", func(u *render.UI) {
		u.Labelf("[%s] x%d", text, b.presses)
	})
	return nil
}

func (b *Button) Delete(c *world.Context) {
	c.World.StopNotifyFor(c.Owner, ecs.EventClick)
}

package component

import "github.com/tandem/engine/internal/scripting"

// RegisterBuiltins adds every built-in component under its scene name.
// The script component is only available when scripts is non-nil.
func RegisterBuiltins(reg *Registry, scripts *scripting.Engine) {
	reg.Register("camera", Decoded[Camera]())
	reg.Register("glyph", Decoded[GlyphRenderer]())
	reg.Register("light", Decoded[PointLight]())
	reg.Register("rotate", Decoded[Rotate]())
	reg.Register("button", Decoded[Button]())
	reg.Register("rigidbody", Decoded[RigidBody]())
	reg.Register("stats", Decoded[Stats]())
	if scripts != nil {
		reg.Register("script", ScriptFactory(scripts))
	}
}

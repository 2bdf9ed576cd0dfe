package core

// BlackHoleParticle matches the interleaved record read by blackhole_update.wgsl
// and points_blackhole.wgsl.
// struct { vec3 pos; vec3 vel; vec3 posOrg; vec3 random; float life; } -> 52 bytes
type BlackHoleParticle struct {
	Position [3]float32 `swarm:"layout" name:"position" location:"0"`
	Velocity [3]float32 `swarm:"layout" name:"velocity" location:"1"`
	Origin   [3]float32 `swarm:"layout" name:"origin" location:"2"`
	Random   [3]float32 `swarm:"layout" name:"random" location:"3"`
	Life     float32    `swarm:"layout" name:"life" location:"4"`
}

// PixelParticle matches the interleaved record read by pixel_update.wgsl,
// pixel_init.wgsl and points_pixel.wgsl.
// struct { vec3 pos; vec3 posOrg; vec3 vel; vec3 color; vec3 extra; } -> 60 bytes
type PixelParticle struct {
	Position [3]float32 `swarm:"layout" name:"position" location:"0"`
	Origin   [3]float32 `swarm:"layout" name:"origin" location:"1"`
	Velocity [3]float32 `swarm:"layout" name:"velocity" location:"2"`
	Color    [3]float32 `swarm:"layout" name:"color" location:"3"`
	Extra    [3]float32 `swarm:"layout" name:"extra" location:"4"`
}

// Fields consumed by the render programs. The update programs read the whole record.
var (
	BlackHoleRenderFields = []string{"position", "origin", "random", "life"}
	PixelRenderFields     = []string{"position", "origin", "velocity", "color", "extra"}
)

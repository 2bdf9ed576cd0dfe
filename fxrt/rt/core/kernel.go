package core

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Uniforms are the per-tick globals shared by every record of one transform.
type Uniforms struct {
	Time    float32 // elapsed seconds plus the per-instance seed
	Offset  float32 // animation progress in [0,1]
	Closing float32 // 1 while the toggle is closing
	Count   uint32

	// Init program inputs. Model is the object to world transform the
	// compositor draws with; View and Projection are the session camera.
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Camera     *image.RGBA // sampled by the CPU init kernel only
}

// Kernel transforms one source record into one destination record.
// Kernels must not depend on other particles.
type Kernel[P any] func(p P, u *Uniforms) P

const (
	bhPull      = 0.0025
	bhOrbit     = 0.0015
	bhTurbulent = 0.0008
	bhDamping   = 0.96
	bhReturn    = 0.02
	bhMinDist   = 0.05
)

// BlackHoleUpdate pulls particles into an orbit around the origin while Offset
// rises, stirred by a noise field. Life decays only while the effect is active;
// an expired particle respawns at its origin. While closing the pull reverses and
// particles drift back home.
func BlackHoleUpdate(p BlackHoleParticle, u *Uniforms) BlackHoleParticle {
	pos := mgl32.Vec3(p.Position)
	vel := mgl32.Vec3(p.Velocity)
	org := mgl32.Vec3(p.Origin)

	t := u.Time * 0.2
	n := mgl32.Vec3(noiseVec(pos.X()*2+t, pos.Y()*2, pos.Z()*2+p.Random[0]*10))
	vel = vel.Add(n.Mul(bhTurbulent * u.Offset * (0.5 + p.Random[1])))

	if u.Closing > 0.5 {
		vel = vel.Add(org.Sub(pos).Mul(bhReturn))
	} else {
		dist := pos.Len()
		if dist > bhMinDist {
			vel = vel.Add(pos.Mul(-bhPull * u.Offset / (dist * dist)))
		}
		if planar := math32.Hypot(pos.X(), pos.Y()); planar > bhMinDist {
			tangent := mgl32.Vec3{-pos.Y() / planar, pos.X() / planar, 0}
			vel = vel.Add(tangent.Mul(bhOrbit * u.Offset))
		}
	}

	vel = vel.Mul(bhDamping)
	pos = pos.Add(vel)

	life := p.Life - (0.002+0.004*p.Random[2])*u.Offset
	if life <= 0 {
		pos = org
		vel = mgl32.Vec3{}
		life = 1
	}

	p.Position = pos
	p.Velocity = vel
	p.Life = life
	return p
}

const (
	pxLift      = 0.3
	pxScatter   = 0.05
	pxSpring    = 0.05
	pxDamping   = 0.9
	pxNoiseFreq = 8.0
)

// PixelUpdate springs each particle toward a target lifted above its origin by
// Offset and displaced by noise scaled per particle.
func PixelUpdate(p PixelParticle, u *Uniforms) PixelParticle {
	pos := mgl32.Vec3(p.Position)
	vel := mgl32.Vec3(p.Velocity)
	org := mgl32.Vec3(p.Origin)

	n := mgl32.Vec3(noiseVec(org.X()*pxNoiseFreq, org.Z()*pxNoiseFreq, u.Time*0.3+p.Extra[1]))
	target := org.
		Add(mgl32.Vec3{0, p.Extra[1] * pxLift * u.Offset, 0}).
		Add(n.Mul(p.Extra[2] * pxScatter * u.Offset))

	vel = vel.Add(target.Sub(pos).Mul(pxSpring)).Mul(pxDamping)
	p.Position = pos.Add(vel)
	p.Velocity = vel
	return p
}

// PixelInit colors each particle with the camera pixel it projects onto.
// Particles outside the view keep their color.
func PixelInit(p PixelParticle, u *Uniforms) PixelParticle {
	if u.Camera == nil {
		return p
	}
	world := u.Model.Mul4x1(mgl32.Vec3(p.Position).Vec4(1))
	clip := u.Projection.Mul4(u.View).Mul4x1(world)
	if clip.W() <= 0 {
		return p
	}
	ndcX, ndcY := clip.X()/clip.W(), clip.Y()/clip.W()
	if ndcX < -1 || ndcX > 1 || ndcY < -1 || ndcY > 1 {
		return p
	}

	b := u.Camera.Bounds()
	px := b.Min.X + int((ndcX*0.5+0.5)*float32(b.Dx()-1))
	py := b.Min.Y + int((0.5-ndcY*0.5)*float32(b.Dy()-1))
	c := u.Camera.RGBAAt(px, py)
	p.Color = [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
	return p
}

const (
	enPhaseStep = 0.02
	enBreath    = 0.25
	enSwirl     = 0.1
	enSpring    = 0.08
	enDamping   = 0.85
)

// EntrainmentUpdate keeps grid particles on a breathing sphere. Color.x holds
// the oscillator phase, Color.y its rate and Color.z the swirl weight.
func EntrainmentUpdate(p PixelParticle, u *Uniforms) PixelParticle {
	pos := mgl32.Vec3(p.Position)
	vel := mgl32.Vec3(p.Velocity)
	org := mgl32.Vec3(p.Origin)

	phase := p.Color[0] + enPhaseStep*(0.5+p.Color[1])
	radius := 1 + enBreath*u.Offset*math32.Sin(phase+p.Extra[0]*math32.Pi+u.Time*0.5)
	t := u.Time * 0.1
	swirl := mgl32.Vec3(noiseVec(org.X()*2+t, org.Y()*2+t, org.Z()*2+t)).Mul(enSwirl * u.Offset * p.Color[2])

	dir := org.Add(swirl)
	if l := dir.Len(); l > 1e-6 {
		dir = dir.Mul(1 / l)
	}
	target := dir.Mul(radius)

	vel = vel.Add(target.Sub(pos).Mul(enSpring)).Mul(enDamping)
	p.Position = pos.Add(vel)
	p.Velocity = vel
	p.Color[0] = phase - 2*math32.Pi*math32.Floor(phase/(2*math32.Pi))
	return p
}

package geom

import "github.com/go-gl/mathgl/mgl32"

// Quaternion is a rotation in glTF component order (x, y, z, w).
type Quaternion struct {
	X Element
	Y Element
	Z Element
	W Element
}

func fromQuat(q mgl32.Quat) *Quaternion {
	return &Quaternion{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W}
}

func (q *Quaternion) quat() mgl32.Quat {
	return mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}}
}

func (q *Quaternion) ToArray() [4]Element {
	return [4]Element{q.X, q.Y, q.Z, q.W}
}

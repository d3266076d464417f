// Package geom holds the vector and matrix types of the scene graph.
// Arithmetic is delegated to mgl32; the types keep named fields for the node tree.
package geom

import "github.com/go-gl/mathgl/mgl32"

type Element = float32

type Vector3 struct {
	X Element
	Y Element
	Z Element
}

func NewVector3FromArray(arr [3]Element) *Vector3 {
	return &Vector3{X: arr[0], Y: arr[1], Z: arr[2]}
}

func fromVec3(v mgl32.Vec3) *Vector3 {
	return &Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func (v *Vector3) vec() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func (v *Vector3) Len() Element {
	return v.vec().Len()
}

func (v *Vector3) Array() [3]Element {
	return [3]Element{v.X, v.Y, v.Z}
}

func (v *Vector3) ToArray(array []Element) {
	vec := v.vec()
	copy(array, vec[:])
}

// Distance between two points.
func Distance(a, b *Vector3) Element {
	return a.vec().Sub(b.vec()).Len()
}

package geom

import "github.com/go-gl/mathgl/mgl32"

// Matrix4 is column-major, the layout of both mgl32.Mat4 and glTF.
type Matrix4 [16]Element

func fromMat4(m mgl32.Mat4) *Matrix4 {
	r := Matrix4(m)
	return &r
}

func (m *Matrix4) mat() mgl32.Mat4 {
	return mgl32.Mat4(*m)
}

func NewMatrix4() *Matrix4 {
	return fromMat4(mgl32.Ident4())
}

func NewMatrix4FromSlice(a []Element) *Matrix4 {
	mat := &Matrix4{}
	copy(mat[:], a)
	return mat
}

func NewScaleMatrix4(x, y, z Element) *Matrix4 {
	return fromMat4(mgl32.Scale3D(x, y, z))
}

func NewTranslateMatrix4(x, y, z Element) *Matrix4 {
	return fromMat4(mgl32.Translate3D(x, y, z))
}

// NewMatrix4FromRotation3 builds a rotation matrix from a row-major 3x3 matrix.
func NewMatrix4FromRotation3(r [9]Element) *Matrix4 {
	return fromMat4(mgl32.Mat3{
		r[0], r[3], r[6],
		r[1], r[4], r[7],
		r[2], r[5], r[8],
	}.Mat4())
}

// NewTRSMatrix4 returns T * R * S.
func NewTRSMatrix4(t *Vector3, r *Quaternion, s *Vector3) *Matrix4 {
	m := mgl32.Translate3D(t.X, t.Y, t.Z).Mul4(r.quat().Mat4()).Mul4(mgl32.Scale3D(s.X, s.Y, s.Z))
	return fromMat4(m)
}

// Mul returns m * a.
func (m *Matrix4) Mul(a *Matrix4) *Matrix4 {
	return fromMat4(m.mat().Mul4(a.mat()))
}

// Inverse returns the zero matrix when m is singular.
func (m *Matrix4) Inverse() *Matrix4 {
	return fromMat4(m.mat().Inv())
}

func (m *Matrix4) ApplyTo(v *Vector3) *Vector3 {
	return fromVec3(m.mat().Mul4x1(v.vec().Vec4(1)).Vec3())
}

func (m *Matrix4) translation() *Vector3 {
	return &Vector3{X: m[12], Y: m[13], Z: m[14]}
}

// Decompose splits an affine matrix into translation, rotation and scale.
// A mirrored matrix gets a negative X scale.
func (m *Matrix4) Decompose() (*Vector3, *Quaternion, *Vector3) {
	r := m.mat()
	scale := mgl32.Vec3{r.Col(0).Vec3().Len(), r.Col(1).Vec3().Len(), r.Col(2).Vec3().Len()}
	if r.Det() < 0 {
		scale[0] = -scale[0]
	}
	for c := 0; c < 3; c++ {
		if scale[c] == 0 {
			continue
		}
		for i := 0; i < 3; i++ {
			r[c*4+i] /= scale[c]
		}
	}
	r.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	q := mgl32.Mat4ToQuat(r).Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return m.translation(), fromQuat(q), fromVec3(scale)
}

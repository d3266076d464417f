package gltfutil

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"strings"

	"github.com/binzume/zenconv/geom"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	gltfbinary "github.com/qmuntal/gltf/binary"
	"github.com/qmuntal/gltf/modeler"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Save writes a .glb file, or a .gltf file with embedded buffers.
func Save(doc *gltf.Document, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		return gltf.SaveBinary(doc, path)
	case ".gltf":
		return gltf.Save(doc, path)
	}
	return errors.Errorf("unsupported output type: %s", path)
}

// WriteMatrices adds a MAT4 accessor.
func WriteMatrices(doc *gltf.Document, mats []*geom.Matrix4) uint32 {
	a := make([][4]float32, len(mats)*4)
	for i, m := range mats {
		for c := 0; c < 4; c++ {
			copy(a[i*4+c][:], m[c*4:c*4+4])
		}
	}
	acc := modeler.WriteTangent(doc, a)
	doc.Accessors[acc].Type = gltf.AccessorMat4
	doc.Accessors[acc].Count /= 4
	doc.BufferViews[*doc.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

// ReadMatrices reads a MAT4 accessor written by WriteMatrices.
func ReadMatrices(doc *gltf.Document, accessor uint32) ([]*geom.Matrix4, error) {
	if int(accessor) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d not found", accessor)
	}
	acc := doc.Accessors[accessor]
	if acc.Type != gltf.AccessorMat4 || acc.BufferView == nil {
		return nil, errors.Errorf("accessor %d is not a matrix array", accessor)
	}
	bufferView := doc.BufferViews[*acc.BufferView]
	data := doc.Buffers[bufferView.Buffer].Data
	var mats []*geom.Matrix4
	for i := uint32(0); i < acc.Count; i++ {
		offset := bufferView.ByteOffset + acc.ByteOffset + i*64
		if int(offset+64) > len(data) {
			return nil, errors.Errorf("accessor %d out of buffer", accessor)
		}
		mat := readMatrix(data[offset : offset+64])
		mats = append(mats, geom.NewMatrix4FromSlice(mat[:]))
	}
	return mats, nil
}

func readMatrix(data []byte) [16]float32 {
	var mat [16]float32
	for i := 0; i < 16; i++ {
		d := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		mat[i] = math.Float32frombits(d)
	}
	return mat
}

func writeMatrix(data []byte, mat [16]float32) {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], math.Float32bits(mat[i]))
	}
}

// Scale multiplies every position, node translation and inverse bind matrix by s.
func Scale(doc *gltf.Document, s float32) error {
	if s == 1 || s == 0 {
		return nil
	}
	scaleMat := geom.NewScaleMatrix4(s, s, s)

	accs := map[uint32]bool{}
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			if a, ok := p.Attributes["POSITION"]; ok {
				accs[a] = true
			}
		}
	}
	for a := range accs {
		acr := doc.Accessors[a]
		if acr.Sparse != nil {
			return errors.New("sparse accessors are not supported")
		}
		pos, err := modeler.ReadPosition(doc, acr, [][3]float32{})
		if err != nil {
			return err
		}

		acr.Min = []float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
		acr.Max = []float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
		for i := range pos {
			scaleMat.ApplyTo(geom.NewVector3FromArray(pos[i])).ToArray(pos[i][:])
			for t, v := range pos[i] {
				acr.Min[t] = float32(math.Min(float64(acr.Min[t]), float64(v)))
				acr.Max[t] = float32(math.Max(float64(acr.Max[t]), float64(v)))
			}
		}
		bufferView := doc.BufferViews[*acr.BufferView]
		buffer := doc.Buffers[bufferView.Buffer]
		if err := gltfbinary.Write(buffer.Data[bufferView.ByteOffset+acr.ByteOffset:], bufferView.ByteStride, pos); err != nil {
			return err
		}
	}
	for _, node := range doc.Nodes {
		scaleMat.ApplyTo(geom.NewVector3FromArray(node.Translation)).ToArray(node.Translation[:])
	}
	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices == nil {
			continue
		}
		accessor := doc.Accessors[*skin.InverseBindMatrices]
		bufferView := doc.BufferViews[*accessor.BufferView]
		data := doc.Buffers[bufferView.Buffer].Data
		for i := range skin.Joints {
			offset := bufferView.ByteOffset + accessor.ByteOffset + uint32(i)*64
			mat := readMatrix(data[offset : offset+64])
			// only the translation part scales
			mat[12] *= s
			mat[13] *= s
			mat[14] *= s
			writeMatrix(data[offset:offset+64], mat)
		}
	}
	return nil
}

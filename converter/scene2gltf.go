package converter

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/binzume/zenconv/assets"
	"github.com/binzume/zenconv/gltfutil"
	"github.com/binzume/zenconv/logger"
	"github.com/binzume/zenconv/mesh"
	"github.com/binzume/zenconv/scene"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	unlitMaterialExt = "KHR_materials_unlit"
	webpTextureExt   = "EXT_texture_webp"
)

type GLTFOption struct {
	Unlit       bool
	AlphaCutoff float32 // 0: alpha blend instead of alpha mask

	TextureFormat          string // png (default), jpeg or webp
	TextureResolutionLimit int    // 0: unlimited
	TextureScale           float32
}

// TextureSource decodes textures by name. *assets.Resolver implements it.
type TextureSource interface {
	Texture(name string) (image.Image, error)
}

var _ TextureSource = (*assets.Resolver)(nil)

// GLTFExporter converts a scene tree into a glTF document.
type GLTFExporter struct {
	*GLTFOption
	*gltf.Document
	textures  *textureCache
	nodeIndex map[*scene.Node]uint32
	materials map[string]uint32
	useUnlit  bool
	useWebp   bool
}

type textureCache struct {
	source   TextureSource
	textures map[string]*textureInfo
}

type textureInfo struct {
	name string
	id   *uint32
	img  image.Image
	err  error
}

func (c *textureCache) get(name string) *textureInfo {
	key := assets.NormalizeKey(name)
	if t, ok := c.textures[key]; ok {
		return t
	}
	t := &textureInfo{name: name}
	c.textures[key] = t
	return t
}

func (c *textureCache) getImage(name string) (image.Image, error) {
	t := c.get(name)
	if t.img != nil || t.err != nil {
		return t.img, t.err
	}
	if c.source == nil {
		t.err = assets.ErrMissingAsset
	} else {
		t.img, t.err = c.source.Texture(name)
	}
	return t.img, t.err
}

func NewGLTFExporter(options *GLTFOption, textures TextureSource) *GLTFExporter {
	if options == nil {
		options = &GLTFOption{}
	}
	if options.TextureScale == 0 {
		options.TextureScale = 1.0
	}
	if options.TextureFormat == "" {
		options.TextureFormat = "png"
	}
	return &GLTFExporter{
		GLTFOption: options,
		Document:   gltf.NewDocument(),
		textures:   &textureCache{source: textures, textures: map[string]*textureInfo{}},
		nodeIndex:  map[*scene.Node]uint32{},
		materials:  map[string]uint32{},
	}
}

func (m *GLTFExporter) addNode(n *scene.Node) uint32 {
	idx := uint32(len(m.Nodes))
	node := &gltf.Node{
		Name:        n.Name,
		Translation: n.Translation.Array(),
		Rotation:    n.Rotation.ToArray(),
		Scale:       n.Scale.Array(),
	}
	if len(n.Extras) > 0 {
		node.Extras = n.Extras
	}
	m.Nodes = append(m.Nodes, node)
	m.nodeIndex[n] = idx
	for _, c := range n.Children {
		ci := m.addNode(c)
		node.Children = append(node.Children, ci)
	}
	return idx
}

func (m *GLTFExporter) addSkin(skin *scene.Skin) uint32 {
	joints := make([]uint32, len(skin.Joints))
	for i, j := range skin.Joints {
		joints[i] = m.nodeIndex[j]
	}
	gs := &gltf.Skin{Joints: joints}
	if len(skin.InverseBindMatrices) == len(joints) {
		gs.InverseBindMatrices = gltf.Index(gltfutil.WriteMatrices(m.Document, skin.InverseBindMatrices))
	}
	m.Skins = append(m.Skins, gs)
	return uint32(len(m.Skins) - 1)
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

func (m *GLTFExporter) mimeType() string {
	switch m.TextureFormat {
	case "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	}
	return "image/png"
}

func scaleTexture(img image.Image, scale float32, limit int) image.Image {
	rect := img.Bounds()
	if limit > 0 {
		sz := int(float32(rect.Dx()) * scale)
		if sz > limit {
			scale *= float32(limit) / float32(sz)
		}
	}
	if scale == 1.0 {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, int(float32(rect.Dx())*scale), int(float32(rect.Dy())*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
	return dst
}

func encodeTexture(img image.Image, mime string) (io.Reader, error) {
	w := new(bytes.Buffer)
	var err error
	switch mime {
	case "image/jpeg":
		err = jpeg.Encode(w, img, nil)
	case "image/webp":
		err = nativewebp.Encode(w, img, nil)
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (m *GLTFExporter) addTexture(texture string) (*uint32, error) {
	t := m.textures.get(texture)
	if t.id != nil {
		return t.id, nil
	}
	img, err := m.textures.getImage(texture)
	if err != nil {
		return nil, err
	}
	mimeType := m.mimeType()
	r, err := encodeTexture(scaleTexture(img, m.TextureScale, m.TextureResolutionLimit), mimeType)
	if err != nil {
		return nil, err
	}
	imgIdx, err := modeler.WriteImage(m.Document, assets.NormalizeKey(texture), mimeType, r)
	if err != nil {
		return nil, err
	}
	m.Buffers[0].ByteLength = uint32(len(m.Buffers[0].Data)) // avoid AddImage bug
	tex := &gltf.Texture{Sampler: gltf.Index(0)}
	if mimeType == "image/webp" {
		tex.Extensions = gltf.Extensions{webpTextureExt: map[string]interface{}{"source": imgIdx}}
		m.useWebp = true
	} else {
		tex.Source = gltf.Index(imgIdx)
	}
	m.Textures = append(m.Textures, tex)

	t.id = gltf.Index(uint32(len(m.Textures)) - 1)
	return t.id, nil
}

func (m *GLTFExporter) material(set *mesh.BufferSet) uint32 {
	key := set.Texture()
	if idx, ok := m.materials[key]; ok {
		return idx
	}
	var rf float32 = 1
	var mf float32 = 0
	name := key
	if set.Material != nil && set.Material.Name != "" {
		name = set.Material.Name
	}
	mm := &gltf.Material{
		Name: name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 1},
			RoughnessFactor: &rf,
			MetallicFactor:  &mf,
		},
	}
	if m.Unlit {
		mm.Extensions = gltf.Extensions{unlitMaterialExt: map[string]string{}}
		m.useUnlit = true
	}
	if key != "" {
		if tex, err := m.addTexture(key); err == nil {
			mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: *tex}
			if img, _ := m.textures.getImage(key); hasAlpha(img) {
				if m.AlphaCutoff > 0 {
					cutoff := m.AlphaCutoff
					mm.AlphaMode = gltf.AlphaMask
					mm.AlphaCutoff = &cutoff
				} else {
					mm.AlphaMode = gltf.AlphaBlend
				}
			}
		} else {
			logger.Warn("texture read error", zap.String("texture", key), zap.Error(err))
		}
	}
	m.Materials = append(m.Materials, mm)
	idx := uint32(len(m.Materials) - 1)
	m.materials[key] = idx
	return idx
}

func (m *GLTFExporter) convertMesh(n *scene.Node) *gltf.Mesh {
	var primitives []*gltf.Primitive
	for _, set := range n.Meshes {
		if set.IsEmpty() {
			continue
		}
		attributes := map[string]uint32{
			"POSITION":   modeler.WritePosition(m.Document, set.Vertices),
			"TEXCOORD_0": modeler.WriteTextureCoord(m.Document, set.UVs),
		}
		if !m.Unlit {
			attributes["NORMAL"] = modeler.WriteNormal(m.Document, set.Normals)
		}
		if set.Skinned() && n.Skin != nil {
			attributes["JOINTS_0"] = modeler.WriteJoints(m.Document, set.Joints)
			attributes["WEIGHTS_0"] = modeler.WriteWeights(m.Document, set.Weights)
		}
		primitives = append(primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(m.Document, set.Indices)),
			Attributes: attributes,
			Material:   gltf.Index(m.material(set)),
		})
	}
	if len(primitives) == 0 {
		return nil
	}
	return &gltf.Mesh{Name: n.Name, Primitives: primitives}
}

// Convert exports root and its descendants as the single scene of the document.
func (m *GLTFExporter) Convert(root *scene.Node) (*gltf.Document, error) {
	m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, m.addNode(root))

	meshes := 0
	root.Walk(func(n *scene.Node) bool {
		if len(n.Meshes) == 0 {
			return true
		}
		gm := m.convertMesh(n)
		if gm == nil {
			return true
		}
		node := m.Nodes[m.nodeIndex[n]]
		node.Mesh = gltf.Index(uint32(len(m.Meshes)))
		m.Meshes = append(m.Meshes, gm)
		if n.Skin != nil {
			node.Skin = gltf.Index(m.addSkin(n.Skin))
		}
		meshes++
		return true
	})

	if m.useUnlit {
		m.ExtensionsUsed = append(m.ExtensionsUsed, unlitMaterialExt)
	}
	if m.useWebp {
		m.ExtensionsUsed = append(m.ExtensionsUsed, webpTextureExt)
		m.ExtensionsRequired = append(m.ExtensionsRequired, webpTextureExt)
	}
	if len(m.Textures) > 0 {
		m.Samplers = []*gltf.Sampler{{WrapS: gltf.WrapRepeat, WrapT: gltf.WrapRepeat}}
	}
	logger.Debug("converted scene", zap.Int("nodes", len(m.Nodes)), zap.Int("meshes", meshes),
		zap.Int("materials", len(m.Materials)), zap.Int("textures", len(m.Textures)))
	return m.Document, nil
}

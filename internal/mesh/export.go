package mesh

import (
	"bytes"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/ivlev/studio3d/internal/pixel"
	"github.com/ivlev/studio3d/internal/scene"
)

// Document builds a single-node glTF scene for the mesh. When texture is
// non-nil it becomes the base colour map; transparent texels (e.g. after
// background removal) switch the material to alpha blending.
func Document(m *Mesh, mat scene.Material, texture *pixel.Buffer) (*gltf.Document, error) {
	positions := make([][3]float32, len(m.Positions))
	normals := make([][3]float32, len(m.Normals))
	uvs := make([][2]float32, len(m.UVs))
	for i := range m.Positions {
		positions[i] = m.Positions[i].Float32()
		normals[i] = m.Normals[i].Float32()
		uvs[i] = [2]float32{float32(m.UVs[i][0]), float32(m.UVs[i][1])}
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "studio3d heightmap"

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
		},
		Indices:  gltf.Index(modeler.WriteIndices(doc, m.Indices)),
		Material: gltf.Index(0),
	}

	base, err := linearColor(mat.Color, [3]float64{1, 1, 1})
	if err != nil {
		return nil, err
	}
	emissive, err := linearColor(mat.Emissive, [3]float64{0, 0, 0})
	if err != nil {
		return nil, err
	}

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{float32(base[0]), float32(base[1]), float32(base[2]), 1},
		MetallicFactor:  gltf.Float(float32(mat.Metalness)),
		RoughnessFactor: gltf.Float(float32(mat.Roughness)),
	}
	material := &gltf.Material{
		Name:                 "heightmap",
		PBRMetallicRoughness: pbr,
		DoubleSided:          true,
		AlphaMode:            gltf.AlphaOpaque,
	}
	if mat.EmissiveIntensity > 0 {
		k := mat.EmissiveIntensity
		material.EmissiveFactor = [3]float32{
			float32(math.Min(emissive[0]*k, 1)),
			float32(math.Min(emissive[1]*k, 1)),
			float32(math.Min(emissive[2]*k, 1)),
		}
	}

	if texture != nil {
		data, err := texture.EncodePNG()
		if err != nil {
			return nil, err
		}
		img, err := modeler.WriteImage(doc, "source", "image/png", bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("mesh: embed texture: %w", err)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: uint32(len(doc.Textures) - 1)}
		if hasTransparency(texture) {
			material.AlphaMode = gltf.AlphaBlend
		}
	}

	doc.Materials = []*gltf.Material{material}
	doc.Meshes = []*gltf.Mesh{{Name: "Heightmap", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: "Heightmap", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// WriteGLB saves the mesh as a binary glTF file.
func WriteGLB(m *Mesh, mat scene.Material, texture *pixel.Buffer, path string) error {
	doc, err := Document(m, mat, texture)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("mesh: save %s: %w", path, err)
	}
	return nil
}

func linearColor(hex string, fallback [3]float64) ([3]float64, error) {
	if hex == "" {
		return fallback, nil
	}
	r, g, b, err := scene.ParseColor(hex)
	if err != nil {
		return fallback, err
	}
	return [3]float64{srgbToLinear(r), srgbToLinear(g), srgbToLinear(b)}, nil
}

func srgbToLinear(c float64) float64 {
	return math.Pow(c, 2.2)
}

func hasTransparency(b *pixel.Buffer) bool {
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] < 255 {
			return true
		}
	}
	return false
}

// Package zen defines the records of the ZenGin asset formats consumed by the importer.
//
// Decoding the binary formats is delegated to a Codec. YAMLCodec reads record dumps
// with the same field names, which is what the tests and the CLI use by default.
package zen

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Vec2 and Vec3 are in source units (centimeters).
type Vec2 [2]float32
type Vec3 [3]float32

// Codec decodes a record stream into one of the record types of this package.
type Codec interface {
	Decode(r io.Reader, v interface{}) error
}

// YAMLCodec decodes YAML record dumps.
type YAMLCodec struct {
	// Strict rejects unknown fields.
	Strict bool
}

func (c YAMLCodec) Decode(r io.Reader, v interface{}) error {
	d := yaml.NewDecoder(r)
	d.SetStrict(c.Strict)
	if err := d.Decode(v); err != nil {
		if err == io.EOF {
			return errors.New("empty record")
		}
		return errors.Wrap(err, "yaml")
	}
	return nil
}

// Encode writes v as a YAML record dump.
func (c YAMLCodec) Encode(w io.Writer, v interface{}) error {
	e := yaml.NewEncoder(w)
	if err := e.Encode(v); err != nil {
		return err
	}
	return e.Close()
}

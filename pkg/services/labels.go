package services

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/labelforge/labelforge-engine/pkg/models"
)

// LabelLines renders the label file body for one image: one line per
// annotation, "<class_index> <x> <y> <w> <h>", lines joined by a single
// newline with no trailing newline. Floats use Go's default shortest text
// representation, which parses back to the identical value.
func LabelLines(annotations []*models.Annotation, classes *ClassMap) (string, error) {
	lines := make([]string, 0, len(annotations))
	for _, a := range annotations {
		idx, ok := classes.Index(a.Tag)
		if !ok {
			return "", fmt.Errorf("annotation tag %q missing from class index", a.Tag)
		}
		lines = append(lines, fmt.Sprintf("%d %v %v %v %v", idx, a.X, a.Y, a.W, a.H))
	}
	return strings.Join(lines, "\n"), nil
}

// manifest is the data.yaml layout consumed by object-detection training
// frameworks. Field order is the on-disk key order.
type manifest struct {
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	Test  string   `yaml:"test"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// DataYAML renders the top-level data.yaml manifest: the image directory per
// split, the class count, and the ordered class name list.
func DataYAML(classes []string) ([]byte, error) {
	if classes == nil {
		classes = []string{}
	}
	m := manifest{
		Train: "images/train",
		Val:   "images/val",
		Test:  "images/test",
		NC:    len(classes),
		Names: classes,
	}
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to render data.yaml: %w", err)
	}
	return out, nil
}

// LabelEntryName converts an image filename into its label entry basename:
// the extension is replaced with .txt.
func LabelEntryName(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i > 0 {
		return filename[:i] + ".txt"
	}
	return filename + ".txt"
}

package poi

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/place-resolver/app/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/pois.yaml
var embeddedDataset []byte

// datasetFile accepts either a bare list or a document with a "pois" key.
type datasetFile struct {
	POIs []models.POI `yaml:"pois"`
}

// Parse decodes a dataset. JSON is valid YAML, so terminals.json style
// exports parse the same way.
func Parse(data []byte) ([]models.POI, error) {
	var list []models.POI
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc datasetFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse poi dataset: %w", err)
	}
	return doc.POIs, nil
}

// LoadEmbedded returns the dataset compiled into the binary.
func LoadEmbedded() ([]models.POI, error) {
	return Parse(embeddedDataset)
}

// LoadFile reads a YAML or JSON dataset from disk.
func LoadFile(path string) ([]models.POI, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read poi dataset %s: %w", path, err)
	}
	return Parse(b)
}

package parser

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cw-kang/rleval-cli/internal/models"
)

func ParseYAMLSuite(reader io.Reader) (*models.SuiteFile, error) {
	var data models.SuiteFile
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML suite: %w", err)
	}

	return &data, nil
}

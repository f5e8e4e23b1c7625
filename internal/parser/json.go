package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cw-kang/rleval-cli/internal/models"
)

func ParseJSONSuite(reader io.Reader) (*models.SuiteFile, error) {
	var data models.SuiteFile
	decoder := json.NewDecoder(reader)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON suite: %w", err)
	}

	return &data, nil
}

package ml

import (
	"fmt"

	"tidal-atlas/models"
)

// LabelEncoder maps Venice classes to contiguous integer labels. Classes are
// kept in Venice order regardless of the order they appear in the training
// data, so encodings are stable across runs and regions.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// NewLabelEncoder builds an encoder over the classes present in the labels.
func NewLabelEncoder(labels []models.SalinityClass) *LabelEncoder {
	present := make(map[models.SalinityClass]bool, len(labels))
	for _, l := range labels {
		present[l] = true
	}

	enc := &LabelEncoder{}
	for _, class := range models.VeniceOrder {
		if present[class] {
			enc.Classes = append(enc.Classes, string(class))
		}
	}
	return enc
}

// Index returns the encoded label of a class.
func (e *LabelEncoder) Index(class models.SalinityClass) (int, error) {
	for i, c := range e.Classes {
		if c == string(class) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("class %s not seen during training", class)
}

// Class decodes an integer label.
func (e *LabelEncoder) Class(index int) models.SalinityClass {
	if index < 0 || index >= len(e.Classes) {
		return ""
	}
	return models.SalinityClass(e.Classes[index])
}

// Encode maps a label slice to integer labels.
func (e *LabelEncoder) Encode(labels []models.SalinityClass) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, err := e.Index(l)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

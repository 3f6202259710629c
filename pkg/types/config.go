package types

// DefaultTypeLabel is the metadata key used for type tags when none is configured.
const DefaultTypeLabel = "deme"

// Config holds the immutable settings of a multi-type tree.
type Config struct {
	TypeLabel string `json:"type_label" yaml:"type_label"`
	TypeCount int    `json:"type_count" yaml:"type_count"`
}

// NewConfig returns a Config with the default type label and the given type count.
func NewConfig(typeCount int) Config {
	return Config{TypeLabel: DefaultTypeLabel, TypeCount: typeCount}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.TypeLabel == "" {
		return ErrTypeLabelEmpty
	}
	if c.TypeCount == 0 {
		return ErrTypeCountMissing
	}
	if c.TypeCount < 0 {
		return ErrTypeCountInvalid
	}
	return nil
}

// ValidType reports whether t is a type index allowed by this Config.
func (c Config) ValidType(t int) bool {
	return t >= 0 && t < c.TypeCount
}

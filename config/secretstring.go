package config

// SecretStringValue replaces secrets in marshaled output.
const SecretStringValue = "<secret>"

// SecretString holds credentials which must never show up in logs, dumps
// or debug reports.
type SecretString string

// Reveal returns actual value.
func (s SecretString) Reveal() string {
	return string(s)
}

func (s SecretString) String() string {
	if s == "" {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON hides actual value, empty secret is null.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(`"` + SecretStringValue + `"`), nil
}

// MarshalYAML hides actual value, empty secret is null.
func (s SecretString) MarshalYAML() (any, error) {
	if s == "" {
		return nil, nil
	}
	return SecretStringValue, nil
}

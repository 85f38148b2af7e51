package fp

import "gopkg.in/yaml.v3"

// MarshalYAML implements yaml.Marshaler (gopkg.in/yaml.v3) so
// Unsigned fields in config structs render as plain decimal strings.
func (u Unsigned) MarshalYAML() (interface{}, error) {
	return u.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (u *Unsigned) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseUnsigned(value.Value)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Signed) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Signed) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseSigned(value.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

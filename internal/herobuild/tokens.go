package herobuild

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// AbilityID identifies an ability, a talent, or the attribute-point token.
type AbilityID string

// ItemID identifies an item.
type ItemID string

// Token is a combo entry: an ability, an item, an action such as "attack",
// or a free-text label.
type Token string

// IsLabel reports whether t is free text rather than an identifier.
// Identifiers never contain whitespace.
func (t Token) IsLabel() bool {
	return strings.IndexFunc(string(t), unicode.IsSpace) >= 0
}

// UnmarshalYAML accepts either a scalar item id or a mapping with "item" and
// an optional "info".
func (c *CounterItem) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		c.Item = ItemID(value.Value)
		c.Info = ""
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			switch key := value.Content[i].Value; key {
			case "item", "info":
			default:
				return fmt.Errorf("line %d: field %s not found in counter item", value.Content[i].Line, key)
			}
		}
		type plain CounterItem
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		if p.Item == "" {
			return fmt.Errorf("line %d: counter item mapping requires an item", value.Line)
		}
		*c = CounterItem(p)
		return nil
	default:
		return fmt.Errorf("line %d: counter item must be an item id or a mapping", value.Line)
	}
}

package access

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"coachgest-backend/internal/models"
)

//go:embed menus.yaml
var menusYAML []byte

// MenuItem is one sidebar entry. Children form an expandable group.
type MenuItem struct {
	Label    string     `yaml:"label" json:"label"`
	Icon     string     `yaml:"icon,omitempty" json:"icon,omitempty"`
	Path     string     `yaml:"path" json:"path"`
	Children []MenuItem `yaml:"children,omitempty" json:"children,omitempty"`
}

// Navigation maps each role to its ordered menu.
type Navigation struct {
	menus map[models.Role][]MenuItem
}

// ParseNavigation decodes a role → menu YAML document.
func ParseNavigation(data []byte) (*Navigation, error) {
	raw := map[string][]MenuItem{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse navigation: %w", err)
	}
	menus := make(map[models.Role][]MenuItem, len(raw))
	for role, items := range raw {
		r := models.Role(role)
		if !r.Valid() {
			return nil, fmt.Errorf("parse navigation: unknown role '%s'", role)
		}
		menus[r] = items
	}
	return &Navigation{menus: menus}, nil
}

var (
	defaultNav     *Navigation
	defaultNavErr  error
	defaultNavOnce sync.Once
)

// DefaultNavigation returns the built-in tables, parsed once.
func DefaultNavigation() (*Navigation, error) {
	defaultNavOnce.Do(func() {
		defaultNav, defaultNavErr = ParseNavigation(menusYAML)
	})
	return defaultNav, defaultNavErr
}

// MenuFor returns a copy of the menu of role. Unknown roles get an empty list.
func (n *Navigation) MenuFor(role models.Role) []MenuItem {
	return cloneItems(n.menus[role])
}

func cloneItems(items []MenuItem) []MenuItem {
	out := make([]MenuItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Children != nil {
			out[i].Children = cloneItems(item.Children)
		}
	}
	return out
}

// Package mapdef holds the static ship geometry the session consumes: task
// stations, multi-step task chains, sabotage panels and the meeting rally
// point. Coordinates are opaque to the session beyond distance comparison.
package mapdef

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Panel kinds as they appear in map files.
const (
	PanelReactor     = "reactor"
	PanelLifeSupport = "life_support"
)

// Point is a position on the ship.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// TaskTemplate describes one task station.
type TaskTemplate struct {
	Name     string `yaml:"name"`
	Room     string `yaml:"room"`
	Position Point  `yaml:"position"`
}

// MultiStepTemplate is a lead station whose completion unlocks the follow station.
type MultiStepTemplate struct {
	Name   string       `yaml:"name"`
	Lead   TaskTemplate `yaml:"lead"`
	Follow TaskTemplate `yaml:"follow"`
}

// PanelDef is a sabotage repair panel.
type PanelDef struct {
	Kind     string `yaml:"kind"`
	Room     string `yaml:"room"`
	Position Point  `yaml:"position"`
}

// Map is a full ship definition.
type Map struct {
	Name       string              `yaml:"name"`
	Rooms      []string            `yaml:"rooms"`
	Tasks      []TaskTemplate      `yaml:"tasks"`
	MultiStep  []MultiStepTemplate `yaml:"multi_step"`
	Panels     []PanelDef          `yaml:"panels"`
	RallyPoint Point               `yaml:"rally_point"`
}

// Load reads and validates a map file.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML map definition.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural guarantees the session relies on.
func (m *Map) Validate() error {
	counts := map[string]int{}
	for _, p := range m.Panels {
		if p.Kind != PanelReactor && p.Kind != PanelLifeSupport {
			return fmt.Errorf("map %q: unknown panel kind %q", m.Name, p.Kind)
		}
		counts[p.Kind]++
	}
	for _, kind := range []string{PanelReactor, PanelLifeSupport} {
		if counts[kind] != 2 {
			return fmt.Errorf("map %q: need exactly 2 %s panels, got %d", m.Name, kind, counts[kind])
		}
	}
	if len(m.Tasks) == 0 {
		return fmt.Errorf("map %q: no single tasks defined", m.Name)
	}

	known := make(map[string]bool, len(m.Rooms))
	for _, r := range m.Rooms {
		known[r] = true
	}
	if len(known) > 0 {
		check := func(t TaskTemplate) error {
			if !known[t.Room] {
				return fmt.Errorf("map %q: task %q in unknown room %q", m.Name, t.Name, t.Room)
			}
			return nil
		}
		for _, t := range m.Tasks {
			if err := check(t); err != nil {
				return err
			}
		}
		for _, ms := range m.MultiStep {
			if err := check(ms.Lead); err != nil {
				return err
			}
			if err := check(ms.Follow); err != nil {
				return err
			}
		}
	}
	return nil
}

// PanelsOf returns the panels of one kind in definition order.
func (m *Map) PanelsOf(kind string) []PanelDef {
	var out []PanelDef
	for _, p := range m.Panels {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

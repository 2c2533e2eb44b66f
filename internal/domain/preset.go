package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Preset groups a named set of targets with the destinations they are
// backed up to. Every (target, destination) pair is handled independently.
type Preset struct {
	name         string
	targets      []string
	destinations []Destination
}

func NewPreset(name string) (*Preset, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("preset name is required")
	}
	return &Preset{name: name}, nil
}

func (p *Preset) Name() string { return p.name }

// Targets returns a copy of the target list in insertion order.
func (p *Preset) Targets() []string {
	return append([]string(nil), p.targets...)
}

// Destinations returns a copy of the destination list in insertion order.
func (p *Preset) Destinations() []Destination {
	return append([]Destination(nil), p.destinations...)
}

// AddTarget appends an absolute target path. The target's stem must not
// contain the name separator of any destination already present.
func (p *Preset) AddTarget(target string) error {
	if !filepath.IsAbs(target) {
		return fmt.Errorf("%w: %q is not an absolute path", ErrInvalidTarget, target)
	}
	target = filepath.Clean(target)

	stem := Stem(target)
	for _, d := range p.destinations {
		if err := d.CheckStem(stem); err != nil {
			return fmt.Errorf("target %s: %w", target, err)
		}
	}

	p.targets = append(p.targets, target)
	return nil
}

// AddDestination appends a destination. Its name separator must not occur in
// the stem of any target already present.
func (p *Preset) AddDestination(d Destination) error {
	if d.path == "" {
		return fmt.Errorf("%w: destination has no path", ErrInvalidDestination)
	}
	for _, t := range p.targets {
		if err := d.CheckStem(Stem(t)); err != nil {
			return fmt.Errorf("destination %s: %w", d.path, err)
		}
	}

	p.destinations = append(p.destinations, d)
	return nil
}

// RemoveTarget removes the first occurrence of target. It reports whether
// anything was removed.
func (p *Preset) RemoveTarget(target string) bool {
	target = filepath.Clean(target)
	for i, t := range p.targets {
		if t == target {
			p.targets = append(p.targets[:i], p.targets[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveDestination removes the first destination equal to d.
func (p *Preset) RemoveDestination(d Destination) bool {
	for i, existing := range p.destinations {
		if existing.Equal(d) {
			p.destinations = append(p.destinations[:i], p.destinations[i+1:]...)
			return true
		}
	}
	return false
}

// HasTarget reports whether target is one of the preset's targets.
func (p *Preset) HasTarget(target string) bool {
	target = filepath.Clean(target)
	for _, t := range p.targets {
		if t == target {
			return true
		}
	}
	return false
}

func (p *Preset) String() string {
	var b strings.Builder
	b.WriteString(p.name)
	b.WriteString("\n\tTargets:")
	for _, t := range p.targets {
		fmt.Fprintf(&b, "\n\t\t- %s", t)
	}
	b.WriteString("\n\tDestinations:")
	for _, d := range p.destinations {
		fmt.Fprintf(&b, "\n\t\t- %s", d.path)
		fmt.Fprintf(&b, "\n\t\t\tArchive Format: %s", d.archiveFormat)
		fmt.Fprintf(&b, "\n\t\t\tRetention Count: %d", d.retentionCount)
		fmt.Fprintf(&b, "\n\t\t\tTimestamp Format: %s", d.timestampFormat)
		fmt.Fprintf(&b, "\n\t\t\tName Separator: %s", d.nameSeparator)
	}
	return b.String()
}

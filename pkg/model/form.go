package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoContainers is returned when a form has no steps to render.
var ErrNoContainers = errors.New("model: form has no containers")

// ContainerIndex returns the position of the container within the form or -1
// when the form does not own it.
func (f Form) ContainerIndex(containerID string) int {
	for idx, container := range f.Containers {
		if container.ID == containerID {
			return idx
		}
	}
	return -1
}

// Container looks up a container by id.
func (f Form) Container(containerID string) (Container, bool) {
	idx := f.ContainerIndex(containerID)
	if idx < 0 {
		return Container{}, false
	}
	return f.Containers[idx], true
}

// FirstContainer returns the container new submissions start on.
func (f Form) FirstContainer() (Container, error) {
	if len(f.Containers) == 0 {
		return Container{}, ErrNoContainers
	}
	return f.Containers[0], nil
}

// Element looks up an element anywhere in the form.
func (f Form) Element(elementID string) (Element, bool) {
	for _, container := range f.Containers {
		for _, element := range container.Elements {
			if element.ID == elementID {
				return element, true
			}
		}
	}
	return Element{}, false
}

// Elements flattens the form's elements in container order.
func (f Form) Elements() []Element {
	var out []Element
	for _, container := range f.Containers {
		out = append(out, container.Elements...)
	}
	return out
}

// Validate checks the structural invariants a form must satisfy before it can
// be rendered: non-empty ids, unique container ids, and element ids that are
// unique across the whole form (an element belongs to exactly one container).
func (f Form) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return errors.New("model: form id is required")
	}

	containers := make(map[string]struct{}, len(f.Containers))
	elements := make(map[string]string)
	for idx, container := range f.Containers {
		id := strings.TrimSpace(container.ID)
		if id == "" {
			return fmt.Errorf("model: form %q container %d: id is required", f.ID, idx)
		}
		if _, exists := containers[id]; exists {
			return fmt.Errorf("model: form %q: duplicate container %q", f.ID, id)
		}
		containers[id] = struct{}{}

		for eidx, element := range container.Elements {
			eid := strings.TrimSpace(element.ID)
			if eid == "" {
				return fmt.Errorf("model: form %q container %q element %d: id is required", f.ID, id, eidx)
			}
			if owner, exists := elements[eid]; exists {
				return fmt.Errorf("model: form %q: element %q declared in containers %q and %q", f.ID, eid, owner, id)
			}
			elements[eid] = id
		}
	}
	return nil
}

// Navigation is derived on every render from the active container's position
// within the form. It is never stored.
type Navigation struct {
	Index       int  `json:"index"`
	Total       int  `json:"total"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
	IsFirst     bool `json:"is_first"`
	IsLast      bool `json:"is_last"`
}

// NavigationFor computes the navigation state for the container. The second
// return value is false when the container does not belong to the form.
func NavigationFor(form Form, containerID string) (Navigation, bool) {
	idx := form.ContainerIndex(containerID)
	if idx < 0 {
		return Navigation{}, false
	}
	total := len(form.Containers)
	return Navigation{
		Index:       idx,
		Total:       total,
		HasPrevious: idx > 0,
		HasNext:     idx < total-1,
		IsFirst:     idx == 0,
		IsLast:      idx == total-1,
	}, true
}

// NextContainer returns the container after the given one.
func (f Form) NextContainer(containerID string) (Container, bool) {
	idx := f.ContainerIndex(containerID)
	if idx < 0 || idx+1 >= len(f.Containers) {
		return Container{}, false
	}
	return f.Containers[idx+1], true
}

// PreviousContainer returns the container before the given one.
func (f Form) PreviousContainer(containerID string) (Container, bool) {
	idx := f.ContainerIndex(containerID)
	if idx <= 0 {
		return Container{}, false
	}
	return f.Containers[idx-1], true
}

// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// Dataset root keys. They double as the config keys under "datasets".
const (
	DatasetMipNeRF360      DatasetKey = "mipnerf360"
	DatasetTanksAndTemples DatasetKey = "tanksandtemples"
	DatasetDeepBlending    DatasetKey = "deepblending"
)

// ErrUnknownScene is returned by Lookup for names outside the catalog.
var ErrUnknownScene = errors.New("unknown scene")

type (
	// DatasetKey names the dataset root a collection reads its scenes from.
	DatasetKey string

	// Collection is one named grouping of scenes sharing a dataset root.
	Collection struct {
		// Name is the human readable collection name.
		Name string
		// Label is the per-scene tracking run suffix, e.g. "outdoor".
		Label string
		// Dataset selects the dataset root.
		Dataset DatasetKey
		// ImageDir is the downsampled image directory passed with -i, or "".
		ImageDir string
		scenes   []string
	}

	// Scene is a single benchmark case together with its collection.
	Scene struct {
		Name       string
		Collection *Collection
	}
)

var (
	// Outdoor is the MipNeRF-360 outdoor collection, trained at quarter resolution.
	Outdoor = &Collection{
		Name:     "MipNeRF-360 outdoor",
		Label:    "outdoor",
		Dataset:  DatasetMipNeRF360,
		ImageDir: "images_4",
		scenes:   []string{"bicycle", "flowers", "garden", "stump", "treehill"},
	}

	// Indoor is the MipNeRF-360 indoor collection, trained at half resolution.
	Indoor = &Collection{
		Name:     "MipNeRF-360 indoor",
		Label:    "indoor",
		Dataset:  DatasetMipNeRF360,
		ImageDir: "images_2",
		scenes:   []string{"room", "counter", "kitchen", "bonsai"},
	}

	// TanksAndTemples is the Tanks & Temples collection.
	TanksAndTemples = &Collection{
		Name:    "Tanks & Temples",
		Label:   "tandt",
		Dataset: DatasetTanksAndTemples,
		scenes:  []string{"truck", "train"},
	}

	// DeepBlending is the Deep Blending collection.
	DeepBlending = &Collection{
		Name:    "Deep Blending",
		Label:   "deepblending",
		Dataset: DatasetDeepBlending,
		scenes:  []string{"drjohnson", "playroom"},
	}

	collections = []*Collection{Outdoor, Indoor, TanksAndTemples, DeepBlending}
)

// Scenes returns a copy of the collection's scene names in catalog order.
func (c *Collection) Scenes() []string {
	return slices.Clone(c.scenes)
}

// String returns the collection name.
func (c *Collection) String() string { return c.Name }

// Collections returns the four collections in processing order.
func Collections() []*Collection {
	return slices.Clone(collections)
}

// All returns every scene in processing order: outdoor, indoor,
// tanks-and-temples, deep-blending.
func All() []Scene {
	var all []Scene
	for _, c := range collections {
		for _, name := range c.scenes {
			all = append(all, Scene{Name: name, Collection: c})
		}
	}
	return all
}

// Names returns the scene names of All.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	return names
}

// Lookup finds a scene by name.
func Lookup(name string) (Scene, error) {
	for _, s := range All() {
		if s.Name == name {
			return s, nil
		}
	}
	return Scene{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// DatasetKeys returns the distinct dataset keys in first-use order.
func DatasetKeys() []DatasetKey {
	var keys []DatasetKey
	for _, c := range collections {
		if !slices.Contains(keys, c.Dataset) {
			keys = append(keys, c.Dataset)
		}
	}
	return keys
}

// RunName is the per-scene tracking run name, e.g. "bicycle_outdoor_speedy".
// A non-empty prefix is prepended with an underscore.
func (s Scene) RunName(prefix string) string {
	name := s.Name + "_" + s.Collection.Label + "_speedy"
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

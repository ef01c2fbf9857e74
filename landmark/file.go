package landmark

import (
	"encoding/json"
	"fmt"
	"io"
)

// File is the on-disk form of the landmark sets detected on one image:
//
//	{"layout": "mediapipe", "faces": [{"points": [[x, y], ...]}]}
type File struct {
	Layout string     `json:"layout"`
	Faces  []FileFace `json:"faces"`
}

// FileFace holds the points of a single face.
type FileFace struct {
	Points []Point `json:"points"`
}

// Load decodes a landmark file.
func Load(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("could not decode landmark file: %w", err)
	}
	return &f, nil
}

// Save encodes f as indented JSON.
func (f *File) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("could not encode landmark file: %w", err)
	}
	return nil
}

// Resolve looks up the layout by name and returns the landmark set of every face.
// An empty layout name defaults to MediaPipe.
func (f *File) Resolve() ([]Face, error) {
	name := f.Layout
	if name == "" {
		name = MediaPipe.Name
	}
	layout, ok := Layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown landmark layout %q", f.Layout)
	}
	faces := make([]Face, 0, len(f.Faces))
	for _, ff := range f.Faces {
		faces = append(faces, NewFace(layout, ff.Points))
	}
	return faces, nil
}

// NewFile wraps faces sharing one layout into a File.
func NewFile(faces []Face) *File {
	f := &File{Faces: make([]FileFace, 0, len(faces))}
	for _, face := range faces {
		if face.Layout != nil && f.Layout == "" {
			f.Layout = face.Layout.Name
		}
		f.Faces = append(f.Faces, FileFace{Points: face.Points})
	}
	return f
}

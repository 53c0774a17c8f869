// Package plan loads a deployable plan package: a ZIP archive
// bundling a manifest, the concept and inference repositories, and the
// vertical/horizontal provisions (prompts, paradigms, scripts, data) a run
// reads from through the Body.
package plan

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/plandrive/engine/concept"
)

// Package is one loaded plan: its manifest, its repositories, and a
// read-only view of its provisions tree.
type Package struct {
	Manifest    Manifest
	Concepts    *concept.ConceptRepo
	Inferences  *concept.InferenceRepo
	PathMapping map[string]string

	archive *zip.Reader
	closer  io.Closer
}

// Load parses a plan package from a ZIP archive of size bytes read through
// r. The caller must call Close when done if it also passes a Closer-backed
// reader (Open does this for you).
func Load(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("plan: opening archive: %w", err)
	}

	var manifest Manifest
	if err := readJSON(zr, "manifest.json", &manifest); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if manifest.Entry.Concepts == "" {
		manifest.Entry.Concepts = "concept_repo.json"
	}
	if manifest.Entry.Inferences == "" {
		manifest.Entry.Inferences = "inference_repo.json"
	}

	var rawConcepts []concept.Concept
	if err := readJSON(zr, manifest.Entry.Concepts, &rawConcepts); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	concepts, err := concept.NewConceptRepo(rawConcepts)
	if err != nil {
		return nil, fmt.Errorf("plan: loading concepts: %w", err)
	}

	var rawInferences []concept.Inference
	if err := readJSON(zr, manifest.Entry.Inferences, &rawInferences); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	var inferenceRecords []map[string]any
	if err := readJSON(zr, manifest.Entry.Inferences, &inferenceRecords); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	for _, rec := range inferenceRecords {
		if wi, ok := rec["working_interpretation"].(map[string]any); ok {
			if _, err := concept.DecodeWorkingInterpretation(wi); err != nil {
				return nil, fmt.Errorf("plan: loading inferences: %w", err)
			}
		}
	}
	inferences, err := concept.NewInferenceRepo(rawInferences, concepts)
	if err != nil {
		return nil, fmt.Errorf("plan: loading inferences: %w", err)
	}

	pathMapping := map[string]string{}
	if hasFile(zr, "path_mapping.json") {
		if err := readJSON(zr, "path_mapping.json", &pathMapping); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
	}

	return &Package{
		Manifest:    manifest,
		Concepts:    concepts,
		Inferences:  inferences,
		PathMapping: pathMapping,
		archive:     zr,
	}, nil
}

// Open loads a plan package from a file path, keeping the file open for the
// lifetime of the Package; call Close to release it.
func Open(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plan: opening %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("plan: stat %q: %w", path, err)
	}
	pkg, err := Load(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	pkg.closer = f
	return pkg, nil
}

// Close releases the underlying plan archive file, if Open opened one.
func (p *Package) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// Provisions returns the read-only filesystem rooted at the archive's
// provisions/ directory, the tree the Body's file_system, prompt_tool, and
// python_interpreter capabilities read from. The plan's path_mapping is not
// applied to this tree; ResolvePath rewrites a logical path separately.
func (p *Package) Provisions() (fs.FS, error) {
	sub, err := fs.Sub(p.archive, "provisions")
	if err != nil {
		return nil, fmt.Errorf("plan: no provisions tree: %w", err)
	}
	return sub, nil
}

// ResolvePath rewrites a logical resource path through the plan's
// path_mapping, or returns it unchanged if no mapping applies.
func (p *Package) ResolvePath(logical string) string {
	if mapped, ok := p.PathMapping[logical]; ok {
		return mapped
	}
	return logical
}

// BindGroundInputs writes a run request's ground_inputs onto the plan's
// ground concepts, applying manifest-declared defaults for any input the
// caller omitted and rejecting a missing required input. This must run
// before blackboard.New so the seeded Blackboard reflects the run's actual
// inputs rather than the plan's placeholder data.
func (p *Package) BindGroundInputs(inputs map[string]any) error {
	for name, spec := range p.Manifest.Inputs {
		value, given := inputs[name]
		if !given {
			if spec.Required {
				return fmt.Errorf("plan: missing required input %q", name)
			}
			value = spec.Default
		}
		c, ok := p.GroundConceptByName(name)
		if !ok {
			return fmt.Errorf("plan: declared input %q has no ground concept", name)
		}
		if err := p.Concepts.SetGroundValue(c.ID, value); err != nil {
			return fmt.Errorf("plan: binding input %q: %w", name, err)
		}
	}
	return nil
}

// GroundConceptByName finds the ground concept bound to a manifest input
// name, so a run request's ground_inputs can be matched by declared input
// name rather than internal concept id.
func (p *Package) GroundConceptByName(name string) (*concept.Concept, bool) {
	for _, c := range p.Concepts.ByName(name) {
		if c.IsGroundConcept {
			return c, true
		}
	}
	return nil, false
}

func readJSON(zr *zip.Reader, name string, v any) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("reading %q: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("reading %q: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %q: %w", name, err)
	}
	return nil
}

func hasFile(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

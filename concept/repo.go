package concept

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/plandrive/engine/reference"
)

// ConceptRepo is the immutable, load-time catalog of Concepts.
type ConceptRepo struct {
	byID   map[string]*Concept
	byName map[string][]*Concept
}

// NewConceptRepo loads repo from a deserialized concept list, validating
// structural invariants.
func NewConceptRepo(concepts []Concept) (*ConceptRepo, error) {
	repo := &ConceptRepo{
		byID:   make(map[string]*Concept, len(concepts)),
		byName: make(map[string][]*Concept),
	}
	for i := range concepts {
		c := concepts[i]
		if _, dup := repo.byID[c.ID]; dup {
			return nil, newLoadError(BadReference, "duplicate concept id %q", c.ID)
		}
		if c.Type.IsOperator() && !(c.IsGroundConcept && c.IsInvariant) {
			return nil, newLoadError(BadReference, "operator concept %q must be ground and invariant", c.ID)
		}
		stored := c
		repo.byID[c.ID] = &stored
		repo.byName[c.ConceptName] = append(repo.byName[c.ConceptName], &stored)
	}
	return repo, nil
}

// Get looks up a concept by id.
func (r *ConceptRepo) Get(id string) (*Concept, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// MustGet looks up a concept by id, returning a LoadError if absent.
func (r *ConceptRepo) MustGet(id string) (*Concept, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, newLoadError(ConceptMissing, "concept %q not found", id)
	}
	return c, nil
}

// ByName returns every concept with the given human-readable name (names
// need not be unique).
func (r *ConceptRepo) ByName(name string) []*Concept {
	return r.byName[name]
}

// AllIDs returns every concept id in the repo, in no particular order.
func (r *ConceptRepo) AllIDs() []string {
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	return out
}

// SetGroundValue overwrites a ground concept's declared reference data, used
// to bind a run's ground_inputs onto the plan's ground concepts before the
// Blackboard is seeded.
func (r *ConceptRepo) SetGroundValue(id string, value any) error {
	c, ok := r.byID[id]
	if !ok {
		return newLoadError(ConceptMissing, "ground input targets unknown concept %q", id)
	}
	if !c.IsGroundConcept {
		return newLoadError(BadReference, "ground input targets non-ground concept %q", id)
	}
	c.ReferenceData = value
	return nil
}

// NewMutableReference instantiates a fresh, empty Reference for a
// non-ground concept from its declared axis names, with each axis starting
// at size 0 (to be grown via AppendCell).
func (r *ConceptRepo) NewMutableReference(c *Concept) (*reference.Reference, error) {
	axes := make([]reference.Axis, len(c.ReferenceAxisNames))
	for i, name := range c.ReferenceAxisNames {
		axes[i] = reference.Axis{Name: name, Size: 0}
	}
	return reference.New(axes...)
}

// InferenceRepo is the immutable, load-time catalog of Inferences.
type InferenceRepo struct {
	byID           map[string]*Inference
	byConceptToInfer map[string][]*Inference
	byFlowIndexOrder []*Inference // sorted ascending by flow index
}

// NewInferenceRepo loads repo from a deserialized inference list, validating
// that every referenced concept id exists in concepts and every sequence tag
// is recognized. Concept references inside working_interpretation are not
// resolved or checked.
func NewInferenceRepo(inferences []Inference, concepts *ConceptRepo) (*InferenceRepo, error) {
	repo := &InferenceRepo{
		byID:             make(map[string]*Inference, len(inferences)),
		byConceptToInfer: make(map[string][]*Inference),
	}
	for i := range inferences {
		inf := inferences[i]
		if _, dup := repo.byID[inf.ID]; dup {
			return nil, newLoadError(BadReference, "duplicate inference id %q", inf.ID)
		}
		switch inf.InferenceSequence {
		case SequenceSimple, SequenceGrouping, SequenceLooping, SequenceAssigning,
			SequenceTiming, SequenceImperative, SequenceJudgement:
		default:
			return nil, newLoadError(UnknownSequence, "inference %q: unknown sequence %q", inf.ID, inf.InferenceSequence)
		}
		if err := requireConceptsExist(concepts, inf.ID, append(inf.EffectiveInputSet(), inf.ConceptToInfer)); err != nil {
			return nil, err
		}
		stored := inf
		repo.byID[inf.ID] = &stored
		repo.byConceptToInfer[inf.ConceptToInfer] = append(repo.byConceptToInfer[inf.ConceptToInfer], &stored)
	}

	repo.byFlowIndexOrder = make([]*Inference, 0, len(repo.byID))
	for _, inf := range repo.byID {
		repo.byFlowIndexOrder = append(repo.byFlowIndexOrder, inf)
	}
	sort.Slice(repo.byFlowIndexOrder, func(i, j int) bool {
		return CompareFlowIndex(repo.byFlowIndexOrder[i].FlowInfo.FlowIndex, repo.byFlowIndexOrder[j].FlowInfo.FlowIndex) < 0
	})

	if err := detectStaticCycle(repo); err != nil {
		return nil, err
	}
	return repo, nil
}

func requireConceptsExist(concepts *ConceptRepo, inferenceID string, ids []string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := concepts.Get(id); !ok {
			return newLoadError(ConceptMissing, "inference %q references unknown concept %q", inferenceID, id)
		}
	}
	return nil
}

// Get looks up an inference by id.
func (r *InferenceRepo) Get(id string) (*Inference, bool) {
	inf, ok := r.byID[id]
	return inf, ok
}

// ByConceptToInfer returns every inference that writes the given concept.
func (r *InferenceRepo) ByConceptToInfer(conceptID string) []*Inference {
	return r.byConceptToInfer[conceptID]
}

// FlowIndexOrder returns every inference sorted ascending by flow index.
// This is the waitlist scan order.
func (r *InferenceRepo) FlowIndexOrder() []*Inference {
	out := make([]*Inference, len(r.byFlowIndexOrder))
	copy(out, r.byFlowIndexOrder)
	return out
}

// detectStaticCycle rejects a support graph that has a cycle not mediated
// by a loop marker (looping sequences are exempt since they legitimately
// re-enable their own body).
func detectStaticCycle(repo *InferenceRepo) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(repo.byID))
	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return newLoadError(StaticCycle, "static cycle detected: %v -> %s", path, id)
		}
		color[id] = gray
		inf := repo.byID[id]
		if inf.InferenceSequence != SequenceLooping {
			for _, dep := range inf.EffectiveInputSet() {
				for _, producer := range repo.byConceptToInfer[dep] {
					if err := visit(producer.ID, append(path, id)); err != nil {
						return err
					}
				}
			}
		}
		color[id] = black
		return nil
	}
	for id := range repo.byID {
		if color[id] == white {
			if err := visit(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeWorkingInterpretation decodes a loosely-typed map into the closed
// WorkingInterpretation schema, rejecting unrecognized top-level keys.
func DecodeWorkingInterpretation(raw map[string]any) (WorkingInterpretation, error) {
	var wi WorkingInterpretation
	if err := validateWorkingInterpretationSchema(raw); err != nil {
		return wi, err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &wi,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return wi, fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return wi, newLoadError(BadReference, "working_interpretation decode failed: %v", err)
	}
	return wi, nil
}

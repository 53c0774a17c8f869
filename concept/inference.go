package concept

// Sequence names the execution pipeline an Inference dispatches to.
type Sequence string

const (
	SequenceSimple     Sequence = "simple"
	SequenceGrouping   Sequence = "grouping"
	SequenceLooping    Sequence = "looping"
	SequenceAssigning  Sequence = "assigning"
	SequenceTiming     Sequence = "timing"
	SequenceImperative Sequence = "imperative"
	SequenceJudgement  Sequence = "judgement"
)

// ValueSelector selects a sub-reference from a relation-valued concept
// (working_interpretation.value_selectors[k]).
type ValueSelector struct {
	SourceConcept string `mapstructure:"source_concept" json:"source_concept"`
	Index         int    `mapstructure:"index" json:"index"`
	Key           string `mapstructure:"key" json:"key"`
}

// Syntax carries the operator-marker and loop-topology fields of
// working_interpretation.syntax.
type Syntax struct {
	Marker               string `mapstructure:"marker,omitempty" json:"marker,omitempty"`
	LoopBaseConcept      string `mapstructure:"LoopBaseConcept,omitempty" json:"LoopBaseConcept,omitempty"`
	CurrentLoopBaseConcept string `mapstructure:"CurrentLoopBaseConcept,omitempty" json:"CurrentLoopBaseConcept,omitempty"`
	GroupBase            string `mapstructure:"group_base,omitempty" json:"group_base,omitempty"`
	QuantifierIndex      int    `mapstructure:"quantifier_index,omitempty" json:"quantifier_index,omitempty"`
	InLoopConcept        map[string]string `mapstructure:"InLoopConcept,omitempty" json:"InLoopConcept,omitempty"`
	ConceptToInfer       []string `mapstructure:"ConceptToInfer,omitempty" json:"ConceptToInfer,omitempty"`
	Condition            string `mapstructure:"condition,omitempty" json:"condition,omitempty"`
	ByAxisConcepts       string `mapstructure:"by_axis_concepts,omitempty" json:"by_axis_concepts,omitempty"`
	AssignSource         string `mapstructure:"assign_source,omitempty" json:"assign_source,omitempty"`
	AssignDestination    string `mapstructure:"assign_destination,omitempty" json:"assign_destination,omitempty"`
}

// WorkingInterpretation is the closed configuration record attached to an
// Inference that makes implicit plan syntax explicit. Decoding
// rejects unrecognized keys at load time (LoadError).
type WorkingInterpretation struct {
	ValueOrder      map[string]int           `mapstructure:"value_order,omitempty" json:"value_order,omitempty"`
	ValueSelectors  map[string]ValueSelector `mapstructure:"value_selectors,omitempty" json:"value_selectors,omitempty"`
	PromptLocation  string                   `mapstructure:"prompt_location,omitempty" json:"prompt_location,omitempty"`
	ScriptLocation  string                   `mapstructure:"script_location,omitempty" json:"script_location,omitempty"`
	IsRelationOutput bool                    `mapstructure:"is_relation_output,omitempty" json:"is_relation_output,omitempty"`
	WithThinking    bool                     `mapstructure:"with_thinking,omitempty" json:"with_thinking,omitempty"`
	NormInput       string                   `mapstructure:"norm_input,omitempty" json:"norm_input,omitempty"`
	Syntax          Syntax                   `mapstructure:"syntax,omitempty" json:"syntax,omitempty"`
}

// FlowInfo carries an inference's hierarchical plan-tree address.
type FlowInfo struct {
	FlowIndex string `json:"flow_index"`
}

// Inference is one step of the plan: a functional concept plus input value
// concepts that together produce one output concept.
type Inference struct {
	ID                    string                `json:"id"`
	InferenceSequence     Sequence              `json:"inference_sequence"`
	ConceptToInfer        string                `json:"concept_to_infer"`
	FunctionConcept       string                `json:"function_concept"`
	ValueConcepts         []string              `json:"value_concepts"`
	ContextConcepts       []string              `json:"context_concepts,omitempty"`
	WorkingInterpretation WorkingInterpretation `json:"working_interpretation,omitempty"`

	StartWithoutValue             bool `json:"start_without_value,omitempty"`
	StartWithoutValueOnlyOnce     bool `json:"start_without_value_only_once,omitempty"`
	StartWithoutFunction          bool `json:"start_without_function,omitempty"`
	StartWithoutFunctionOnlyOnce  bool `json:"start_without_function_only_once,omitempty"`
	StartWithSupportReferenceOnly bool `json:"start_with_support_reference_only,omitempty"`

	FlowInfo FlowInfo `json:"flow_info"`
}

// InputConcepts returns every concept id this inference reads from,
// excluding the function concept.
func (i *Inference) InputConcepts() []string {
	out := make([]string, 0, len(i.ValueConcepts)+len(i.ContextConcepts))
	out = append(out, i.ValueConcepts...)
	out = append(out, i.ContextConcepts...)
	return out
}

// EffectiveInputSet returns every concept id whose completeness the
// readiness rule must check, including the function concept.
func (i *Inference) EffectiveInputSet() []string {
	out := i.InputConcepts()
	if i.FunctionConcept != "" {
		out = append(out, i.FunctionConcept)
	}
	return out
}

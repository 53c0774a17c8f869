package plan

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"testing"
)

func buildTestArchive(t *testing.T, extra map[string]string) *bytes.Reader {
	t.Helper()

	manifest := Manifest{
		Name:    "test-plan",
		Version: "1.0",
		Entry:   Entry{Concepts: "concept_repo.json", Inferences: "inference_repo.json"},
		Inputs: map[string]IOSpec{
			"topic": {Type: "string", Required: true},
			"depth": {Type: "number", Default: float64(3)},
		},
	}
	concepts := []map[string]any{
		{
			"id":                   "c_topic",
			"concept_name":         "topic",
			"type":                 "value",
			"axis_name":            "value",
			"is_ground_concept":    true,
			"reference_axis_names": []string{"value"},
		},
		{
			"id":                   "c_depth",
			"concept_name":         "depth",
			"type":                 "value",
			"axis_name":            "value",
			"is_ground_concept":    true,
			"reference_axis_names": []string{"value"},
		},
		{
			"id":                   "c_out",
			"concept_name":         "out",
			"type":                 "value",
			"axis_name":            "value",
			"is_final_concept":     true,
			"reference_axis_names": []string{"value"},
		},
	}
	inferences := []map[string]any{
		{
			"id":                 "inf_1",
			"inference_sequence": "simple",
			"concept_to_infer":   "c_out",
			"function_concept":   "c_topic",
			"value_concepts":     []string{"c_topic"},
			"flow_info":          map[string]string{"flow_index": "1"},
		},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	writeJSON := func(name string, v any) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	writeJSON("manifest.json", manifest)
	writeJSON("concept_repo.json", concepts)
	writeJSON("inference_repo.json", inferences)
	for name, content := range extra {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestLoadParsesManifestConceptsAndInferences(t *testing.T) {
	r := buildTestArchive(t, nil)
	pkg, err := Load(r, int64(r.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Manifest.Name != "test-plan" {
		t.Fatalf("expected manifest name test-plan, got %q", pkg.Manifest.Name)
	}
	if _, ok := pkg.Concepts.Get("c_out"); !ok {
		t.Fatal("expected c_out concept to be loaded")
	}
}

func TestBindGroundInputsAppliesDefaultsAndRejectsMissingRequired(t *testing.T) {
	r := buildTestArchive(t, nil)
	pkg, err := Load(r, int64(r.Len()))
	if err != nil {
		t.Fatal(err)
	}

	if err := pkg.BindGroundInputs(map[string]any{}); err == nil {
		t.Fatal("expected error for missing required input")
	}

	if err := pkg.BindGroundInputs(map[string]any{"topic": "go generics"}); err != nil {
		t.Fatal(err)
	}
	c, _ := pkg.Concepts.Get("c_topic")
	if c.ReferenceData != "go generics" {
		t.Fatalf("expected bound ground value, got %v", c.ReferenceData)
	}
	depth, _ := pkg.Concepts.Get("c_depth")
	if depth.ReferenceData != float64(3) {
		t.Fatalf("expected default depth value, got %v", depth.ReferenceData)
	}
}

func TestGroundConceptByNameFindsGroundConcept(t *testing.T) {
	r := buildTestArchive(t, nil)
	pkg, err := Load(r, int64(r.Len()))
	if err != nil {
		t.Fatal(err)
	}
	c, ok := pkg.GroundConceptByName("topic")
	if !ok || c.ID != "c_topic" {
		t.Fatalf("expected to find c_topic, got %+v ok=%v", c, ok)
	}
}

func TestResolvePathUsesPathMapping(t *testing.T) {
	r := buildTestArchive(t, map[string]string{
		"path_mapping.json": `{"prompts/foo.txt":"provisions/prompts/foo_v2.txt"}`,
	})
	pkg, err := Load(r, int64(r.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if got := pkg.ResolvePath("prompts/foo.txt"); got != "provisions/prompts/foo_v2.txt" {
		t.Fatalf("expected mapped path, got %q", got)
	}
	if got := pkg.ResolvePath("unmapped.txt"); got != "unmapped.txt" {
		t.Fatalf("expected unchanged path, got %q", got)
	}
}

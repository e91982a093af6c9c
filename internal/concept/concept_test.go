package concept

import (
	"encoding/json"
	"testing"
)

func TestParseRelationType(t *testing.T) {
	tests := []struct {
		in        string
		dependsOn bool
		label     string
	}{
		{"DEPENDS_ON", true, "DEPENDS_ON"},
		{"", true, "DEPENDS_ON"},
		{"  ", true, "DEPENDS_ON"},
		{"RELATED_TO", false, "RELATED_TO"},
		{"depends_on", false, "depends_on"},
	}
	for _, tt := range tests {
		got := ParseRelationType(tt.in)
		if got.IsDependsOn() != tt.dependsOn || got.Label() != tt.label {
			t.Errorf("ParseRelationType(%q) = %v/%q, want %v/%q", tt.in, got.IsDependsOn(), got.Label(), tt.dependsOn, tt.label)
		}
	}
}

func TestOtherNormalizesDependsOn(t *testing.T) {
	if !Other(DependsOnLabel).IsDependsOn() {
		t.Fatal("Other(DEPENDS_ON) must collapse into the DependsOn arm")
	}
	var zero RelationType
	if !zero.IsDependsOn() || zero.Kind() != KindDependsOn {
		t.Fatal("zero value must be DependsOn")
	}
}

func TestRelationshipJSON(t *testing.T) {
	r := Relationship{ID: 3, SourceID: 1, TargetID: 2, Type: Other("EXTENDS")}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":3,"sourceConceptId":1,"targetConceptId":2,"relationshipType":"EXTENDS"}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}

	var back Relationship
	if err := json.Unmarshal([]byte(`{"sourceConceptId":1,"targetConceptId":2,"relationshipType":""}`), &back); err != nil {
		t.Fatal(err)
	}
	if !back.Type.IsDependsOn() {
		t.Fatalf("empty type should decode as DependsOn, got %q", back.Type)
	}
}

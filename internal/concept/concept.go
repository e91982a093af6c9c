// Package concept holds the knowledge graph: concepts and the directed
// relationships between them. Only DEPENDS_ON edges carry meaning for
// prerequisite traversal; every other relationship type is stored as is.
package concept

import (
	"fmt"
	"strings"
)

// Concept is a named unit of subject-matter knowledge.
type Concept struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// DependsOnLabel is the stored label of the prerequisite relationship.
const DependsOnLabel = "DEPENDS_ON"

// RelationKind discriminates RelationType.
type RelationKind int

const (
	KindDependsOn RelationKind = iota
	KindOther
)

// RelationType is either DependsOn or Other(label). The zero value is
// DependsOn.
type RelationType struct {
	kind  RelationKind
	label string
}

// DependsOn is the prerequisite relationship: the source concept requires
// mastery of the target first.
func DependsOn() RelationType {
	return RelationType{kind: KindDependsOn}
}

// Other is any relationship type the engine stores but never traverses.
// Other(DependsOnLabel) is DependsOn.
func Other(label string) RelationType {
	if label == DependsOnLabel {
		return DependsOn()
	}
	return RelationType{kind: KindOther, label: label}
}

// ParseRelationType maps a stored or user-supplied label onto the variant.
// An empty label means DependsOn.
func ParseRelationType(label string) RelationType {
	label = strings.TrimSpace(label)
	if label == "" {
		return DependsOn()
	}
	return Other(label)
}

func (t RelationType) Kind() RelationKind { return t.kind }

func (t RelationType) IsDependsOn() bool { return t.kind == KindDependsOn }

// Label is the string stored for this type.
func (t RelationType) Label() string {
	if t.kind == KindDependsOn {
		return DependsOnLabel
	}
	return t.label
}

func (t RelationType) String() string { return t.Label() }

func (t RelationType) MarshalText() ([]byte, error) {
	return []byte(t.Label()), nil
}

func (t *RelationType) UnmarshalText(b []byte) error {
	*t = ParseRelationType(string(b))
	return nil
}

// Relationship is a directed edge: Source relates to Target with Type.
// For DependsOn, Source depends on Target.
type Relationship struct {
	ID       int64        `json:"id"`
	SourceID int64        `json:"sourceConceptId"`
	TargetID int64        `json:"targetConceptId"`
	Type     RelationType `json:"relationshipType"`
}

func (r Relationship) String() string {
	return fmt.Sprintf("%d -%s-> %d", r.SourceID, r.Type.Label(), r.TargetID)
}

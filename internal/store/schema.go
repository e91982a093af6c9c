package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// textSize makes ent emit an unbounded text column on every dialect.
const textSize = 2147483647

var (
	conceptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "name", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	conceptsTable = &schema.Table{
		Name:       "concepts",
		Columns:    conceptsColumns,
		PrimaryKey: []*schema.Column{conceptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "concepts_name", Columns: []*schema.Column{conceptsColumns[1]}},
		},
	}

	relationshipsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "source_concept_id", Type: field.TypeInt64},
		{Name: "target_concept_id", Type: field.TypeInt64},
		{Name: "relationship_type", Type: field.TypeString, Default: "DEPENDS_ON"},
		{Name: "created_at", Type: field.TypeTime},
	}
	relationshipsTable = &schema.Table{
		Name:       "concept_relationships",
		Columns:    relationshipsColumns,
		PrimaryKey: []*schema.Column{relationshipsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "concept_relationships_concepts_source",
				Columns:    []*schema.Column{relationshipsColumns[1]},
				RefColumns: []*schema.Column{conceptsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "concept_relationships_concepts_target",
				Columns:    []*schema.Column{relationshipsColumns[2]},
				RefColumns: []*schema.Column{conceptsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "concept_relationships_source", Columns: []*schema.Column{relationshipsColumns[1]}},
		},
	}

	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "question_text", Type: field.TypeString, Size: textSize},
		{Name: "option1", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "option2", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "option3", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "option4", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "correct_option", Type: field.TypeInt},
		{Name: "question_type", Type: field.TypeString},
		{Name: "concept_id", Type: field.TypeInt64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	questionsTable = &schema.Table{
		Name:       "questions",
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_concepts_questions",
				Columns:    []*schema.Column{questionsColumns[8]},
				RefColumns: []*schema.Column{conceptsColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{Name: "questions_question_type", Columns: []*schema.Column{questionsColumns[7]}},
			{Name: "questions_concept_id", Columns: []*schema.Column{questionsColumns[8]}},
		},
	}

	submissionResultsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "student_identity", Type: field.TypeString},
		{Name: "question_type", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "total_questions", Type: field.TypeInt},
		{Name: "percentage", Type: field.TypeFloat64},
		{Name: "failed_question_ids", Type: field.TypeString, Size: textSize},
		{Name: "created_at", Type: field.TypeTime},
	}
	submissionResultsTable = &schema.Table{
		Name:       "submission_results",
		Columns:    submissionResultsColumns,
		PrimaryKey: []*schema.Column{submissionResultsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "submission_results_student", Columns: []*schema.Column{submissionResultsColumns[1]}},
		},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "request_body", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "response_body", Type: field.TypeString, Size: textSize, Nullable: true},
	}
	llmEventsTable = &schema.Table{
		Name:       "llm_events",
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llm_events_purpose", Columns: []*schema.Column{llmEventsColumns[4]}},
		},
	}

	// tables is every table Open migrates, in dependency order.
	tables = []*schema.Table{
		conceptsTable,
		relationshipsTable,
		questionsTable,
		submissionResultsTable,
		llmEventsTable,
	}
)

func init() {
	relationshipsTable.ForeignKeys[0].RefTable = conceptsTable
	relationshipsTable.ForeignKeys[1].RefTable = conceptsTable
	questionsTable.ForeignKeys[0].RefTable = conceptsTable
}

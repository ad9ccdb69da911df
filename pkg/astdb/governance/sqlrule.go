package governance

import (
	"context"
	"fmt"
	"strings"

	"hexarch/pkg/archrule"
	"hexarch/pkg/astdb"
	"hexarch/pkg/depgraph"
)

// SQLRule evaluates a governance query as an archrule.Rule. Each Validate call
// indexes the graph into a private in-memory DuckDB database and runs the
// query there; every row becomes a violation.
type SQLRule struct {
	rule Rule
}

// NewSQLRule wraps rule. The rule is enabled regardless of its Enabled flag.
func NewSQLRule(rule Rule) *SQLRule {
	rule.Enabled = true
	if rule.Category == "" {
		rule.Category = "custom"
	}
	return &SQLRule{rule: rule}
}

// Rule returns the wrapped governance rule.
func (r *SQLRule) Rule() Rule {
	return r.rule
}

func (r *SQLRule) String() string {
	if r.rule.Description != "" {
		return r.rule.ID + ": " + r.rule.Description
	}
	return r.rule.ID
}

// Verify checks that the rule has an id and that its query prepares against
// the index schema.
func (r *SQLRule) Verify() error {
	if strings.TrimSpace(r.rule.ID) == "" {
		return archrule.ErrConfig("query rule: id is required")
	}
	if strings.TrimSpace(r.rule.QuerySQL) == "" {
		return archrule.ErrConfig("query rule %s: sql is required", r.rule.ID)
	}

	ctx := context.Background()
	db, err := astdb.Open("")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := astdb.IndexDB(ctx, db, depgraph.NewBuilder("").Build()); err != nil {
		return err
	}
	stmt, err := db.PrepareContext(ctx, r.rule.QuerySQL)
	if err != nil {
		return archrule.WrapConfig(err, "query rule %s", r.rule.ID)
	}
	_ = stmt.Close()
	return nil
}

// Validate runs the query against g.
func (r *SQLRule) Validate(ctx context.Context, g *depgraph.Graph) (archrule.Result, error) {
	db, err := astdb.Open("")
	if err != nil {
		return archrule.Result{}, err
	}
	defer func() { _ = db.Close() }()

	if _, err := astdb.IndexDB(ctx, db, g); err != nil {
		return archrule.Result{}, fmt.Errorf("index graph for rule %s: %w", r.rule.ID, err)
	}
	found, err := queryViolations(ctx, db, r.rule)
	if err != nil {
		return archrule.Result{}, archrule.WrapConfig(err, "query rule %s", r.rule.ID)
	}

	messages := make([]string, 0, len(found))
	for _, v := range found {
		messages = append(messages, v.String())
	}
	return archrule.Failure(messages...), nil
}

package archscript

import (
	"fmt"

	"go.starlark.net/starlark"

	"hexarch/pkg/archrule"
)

// ruleValue exposes an archrule.Rule to Starlark.
type ruleValue struct {
	rule archrule.Rule
}

var _ starlark.Value = (*ruleValue)(nil)

func newRuleValue(r archrule.Rule) (starlark.Value, error) {
	if err := archrule.Verify(r); err != nil {
		return nil, err
	}
	return &ruleValue{rule: r}, nil
}

func (v *ruleValue) String() string        { return fmt.Sprintf("rule(%s)", v.rule) }
func (v *ruleValue) Type() string          { return "rule" }
func (v *ruleValue) Freeze()               {}
func (v *ruleValue) Truth() starlark.Bool  { return starlark.True }
func (v *ruleValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: rule") }

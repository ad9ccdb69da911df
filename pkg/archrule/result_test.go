package archrule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_SuccessIsIdentity(t *testing.T) {
	f := Failure("a", "b")

	assert.Equal(t, f.Violations(), Success().Combine(f).Violations())
	assert.Equal(t, f.Violations(), f.Combine(Success()).Violations())
	assert.True(t, Success().Combine(Success()).OK())
}

func TestResult_AccumulatesInOrderKeepingDuplicates(t *testing.T) {
	got := Failure("a", "b").Combine(Failure("b", "c"))
	assert.Equal(t, []string{"a", "b", "b", "c"}, got.Violations())
}

func TestResult_CombineIsAssociative(t *testing.T) {
	a, b, c := Failure("a"), Success(), Failure("c1", "c2")

	left := a.Combine(b).Combine(c)
	right := a.Combine(b.Combine(c))
	assert.Equal(t, left.Violations(), right.Violations())
	assert.Equal(t, left.Violations(), CombineAll(a, b, c).Violations())
	assert.True(t, CombineAll().OK())
}

func TestResult_FailureWithoutViolationsIsSuccess(t *testing.T) {
	assert.True(t, Failure().OK())
	var zero Result
	assert.True(t, zero.OK())
	assert.Equal(t, "Success", zero.String())
}

func TestResult_ViolationsAreCopied(t *testing.T) {
	f := Failure("a")
	v := f.Violations()
	v[0] = "mutated"
	assert.Equal(t, []string{"a"}, f.Violations())
}

func TestResult_Err(t *testing.T) {
	require.NoError(t, Success().Err())

	err := Failure("x must not depend on y: p imports q").Err()
	require.Error(t, err)
	var verr *ViolationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"x must not depend on y: p imports q"}, verr.Details)

	multi := Failure("one", "two").Err()
	assert.Contains(t, multi.Error(), "was violated (2 times)")
	assert.Contains(t, multi.Error(), "one\ntwo")
}

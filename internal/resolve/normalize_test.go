package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Normalize("\t\n"))
}

func TestNormalize_Lowercase(t *testing.T) {
	assert.Equal(t, "acme corp", Normalize("ACME CORP"))
	assert.Equal(t, "acme corp", Normalize("Acme Corp"))
}

func TestNormalize_StripPeriodsAndCommas(t *testing.T) {
	assert.Equal(t, "acme corp", Normalize("Acme Corp."))
	assert.Equal(t, "acme corp inc", Normalize("Acme Corp, Inc."))
}

func TestNormalize_AmpersandAndPlus(t *testing.T) {
	assert.Equal(t, "smith and jones", Normalize("Smith & Jones"))
	assert.Equal(t, "smith and jones", Normalize("Smith + Jones"))
}

func TestNormalize_DashAndSlashToSpace(t *testing.T) {
	assert.Equal(t, "wells fargo", Normalize("Wells-Fargo"))
	assert.Equal(t, "a b services", Normalize("A/B Services"))
}

func TestNormalize_CollapseSpaces(t *testing.T) {
	assert.Equal(t, "acme corp", Normalize("  Acme   Corp  "))
	assert.Equal(t, "acme corp", Normalize("Acme \t Corp"))
}

func TestNormalize_Corrections(t *testing.T) {
	assert.Equal(t, "northern virginia electric", Normalize("Northern Virgina Electic"))
	assert.Equal(t, "sacramento management association", Normalize("Sacremento Managment Assocation"))
	assert.Equal(t, "pittsburgh holdings", Normalize("Pittsburg Holdings"))
	assert.Equal(t, "cincinnati bell", Normalize("Cincinatti Bell"))
}

func TestNormalize_CorrectionAfterPunctuation(t *testing.T) {
	// Corrections run after punctuation stripping, so a period between
	// the typo and the next word does not block the match.
	assert.Equal(t, "virginia power", Normalize("Virgina. Power"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Acme Corp.",
		"Smith & Jones, LLC",
		"Northern Virgina Electic",
		"Pittsburg Holdings",
		"  A/B  Test-Case  ",
		"Sacremento Managment Assocation",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_PreservesPlainNames(t *testing.T) {
	assert.Equal(t, "vanguard group", Normalize("Vanguard Group"))
}

func TestNewNormalizer_ExtraCorrections(t *testing.T) {
	n := NewNormalizer(Correction{Pattern: "teh", Replacement: "the"})
	assert.Equal(t, "the acme group", n.Normalize("Teh Acme Group"))
	// Defaults still apply.
	assert.Equal(t, "the virginia group", n.Normalize("Teh Virgina Group"))
}

func TestNewNormalizer_ExtraAppliedInOrder(t *testing.T) {
	// Later corrections see the output of earlier ones.
	n := NewNormalizer(
		Correction{Pattern: "intl", Replacement: "international"},
		Correction{Pattern: "international grp", Replacement: "international group"},
	)
	assert.Equal(t, "acme international group", n.Normalize("ACME Intl Grp"))
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFingerprintDeterministic(t *testing.T) {
	a := Object{"units": List{String("org.acme.A"), String("org.acme.B")}, "format": String(PlanFormat)}
	b := Object{"format": String(PlanFormat), "units": List{String("org.acme.A"), String("org.acme.B")}}

	assert.Equal(t, MustPlanFingerprint(a), MustPlanFingerprint(b))
	assert.Len(t, MustPlanFingerprint(a), 64)
}

func TestPlanFingerprintOrderSensitive(t *testing.T) {
	a := Object{"units": List{String("org.acme.A"), String("org.acme.B")}}
	b := Object{"units": List{String("org.acme.B"), String("org.acme.A")}}

	assert.NotEqual(t, MustPlanFingerprint(a), MustPlanFingerprint(b))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainPlan, data), hashWithDomain(DomainCatalog, data))
}

func TestCatalogHash(t *testing.T) {
	c := &Catalog{
		Annotations: []AnnotationDecl{{Name: "Singleton", Targets: []ElementKind{KindType}}},
		Types: []TypeDecl{{
			Name:        "org.acme.Repo",
			Package:     "org.acme",
			Annotations: []Annotation{{Name: "Singleton", Attrs: Object{"depends_on": List{String("org.acme.DB")}}}},
		}},
		Bindings: []BindingDecl{{Name: "singletons", Annotation: "Singleton", Handler: "record", Rules: []Rule{BeforeAnnotation("Inject")}}},
	}

	h1, err := CatalogHash(c)
	require.NoError(t, err)
	h2, err := CatalogHash(c)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	c.Bindings[0].Rules[0].Order = After
	h3, err := CatalogHash(c)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

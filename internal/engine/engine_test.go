package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iocplan/internal/graph"
	"github.com/roach88/iocplan/internal/ir"
)

func newTestProcessor(scanner Scanner, pctx ProcessingContext, opts ...Option) *Processor {
	opts = append([]Option{WithRunIDGenerator(NewFixedGenerator("run-1", "run-2", "run-3"))}, opts...)
	return New(scanner, pctx, opts...)
}

func TestProcess_DependencyExecutesFirst(t *testing.T) {
	t1 := typeDecl("org.acme.T1", "A")
	t2 := typeDecl("org.acme.T2", "B")
	scanner := newFakeScanner(t1, t2)

	var journal []string
	h := newRecordingHandler(&journal)
	h.deps["org.acme.T1"] = []string{"org.acme.T2"}

	p := newTestProcessor(scanner, ProcessingContext{})
	p.Register(typeOnly("A"), h)
	p.Register(typeOnly("B"), h)

	res, err := p.Process()
	require.NoError(t, err)

	assert.Equal(t, []string{"org.acme.T2", "org.acme.T1"}, handledKeys(res))
	assert.Equal(t, []string{
		"register:org.acme.T1@A",
		"deps:org.acme.T1@A",
		"register:org.acme.T2@B",
		"deps:org.acme.T2@B",
		"handle:org.acme.T2@B",
		"handle:org.acme.T1@A",
	}, journal)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{"org.acme.T2", "org.acme.T1"}, p.Injection().Types())
}

func TestProcess_ProvidedHandlerSkipsTypeScan(t *testing.T) {
	t3 := typeDecl("org.acme.T3")
	scanner := newFakeScanner(t3)

	var journal []string
	provided := &recordingProvided{recordingHandler: newRecordingHandler(&journal), types: []*ir.TypeDecl{t3}}

	p := newTestProcessor(scanner, ProcessingContext{})
	p.Register(ir.AnnotationDecl{Name: "C"}, provided)

	plan, err := p.Plan()
	require.NoError(t, err)

	assert.NotContains(t, scanner.calls, "type:C")
	assert.NotContains(t, scanner.calls, "method:C")
	assert.NotContains(t, scanner.calls, "field:C")
	assert.Equal(t, []string{"org.acme.T3"}, plan.Keys())

	actions := plan.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, ir.KindType, actions[0].Element.Kind())
	assert.Equal(t, "C", actions[0].Annotation.Name)
}

func TestProcess_TestOnlyTypeSkippedOutsideTestMode(t *testing.T) {
	prod := typeDecl("org.acme.Repo", "Bean")
	mock := typeDecl("org.acme.FakeRepo", "Bean", ir.TestMockAnnotation)
	mock.Fields = []ir.FieldDecl{{Name: "db", Annotations: []ir.Annotation{{Name: "Bean"}}}}

	var journal []string
	h := newRecordingHandler(&journal)

	p := newTestProcessor(newFakeScanner(prod, mock), ProcessingContext{})
	p.Register(ir.AnnotationDecl{Name: "Bean"}, h)

	res, err := p.Process()
	require.NoError(t, err)
	assert.Equal(t, []string{"org.acme.Repo"}, res.Plan.Keys())
	assert.Equal(t, 2, res.Plan.Discovery.Skipped)
	for _, line := range journal {
		assert.NotContains(t, line, "FakeRepo")
	}
	assert.False(t, p.Injection().IsAdded("org.acme.FakeRepo"))
}

func TestProcess_TestOnlyTypeIncludedInTestMode(t *testing.T) {
	only := typeDecl("org.acme.Fixture", "Bean", ir.TestOnlyAnnotation)

	var journal []string
	p := newTestProcessor(newFakeScanner(only), ProcessingContext{TestMode: true})
	p.Register(typeOnly("Bean"), newRecordingHandler(&journal))

	res, err := p.Process()
	require.NoError(t, err)
	assert.Equal(t, []string{"org.acme.Fixture"}, res.Plan.Keys())
	assert.Equal(t, 0, res.Plan.Discovery.Skipped)
}

func TestProcess_FieldMetadataDeferredToExecute(t *testing.T) {
	repo := typeDecl("org.acme.Repo")
	repo.Fields = []ir.FieldDecl{{Name: "db", Type: "org.acme.DB", Annotations: []ir.Annotation{{Name: "Inject"}}}}
	repo.Methods = []ir.MethodDecl{{Name: "init", Annotations: []ir.Annotation{{Name: "Inject"}}}}

	var journal []string
	h := newRecordingHandler(&journal)

	p := newTestProcessor(newFakeScanner(repo), ProcessingContext{})
	p.Register(ir.AnnotationDecl{Name: "Inject", Targets: []ir.ElementKind{ir.KindField, ir.KindMethod}}, h)

	_, err := p.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"deps:org.acme.Repo.db@Inject",
		"register:org.acme.Repo#init()@Inject",
		"deps:org.acme.Repo#init()@Inject",
	}, journal)

	journal = nil
	p2 := newTestProcessor(newFakeScanner(repo), ProcessingContext{})
	p2.Register(ir.AnnotationDecl{Name: "Inject", Targets: []ir.ElementKind{ir.KindField, ir.KindMethod}}, newRecordingHandler(&journal))
	_, err = p2.Process()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"deps:org.acme.Repo.db@Inject",
		"register:org.acme.Repo#init()@Inject",
		"deps:org.acme.Repo#init()@Inject",
		"register:org.acme.Repo.db@Inject",
		"handle:org.acme.Repo.db@Inject",
		"handle:org.acme.Repo#init()@Inject",
	}, journal)
}

func TestProcess_MasqueradeMergesUnits(t *testing.T) {
	impl := typeDecl("org.acme.RepoImpl", "Bean")
	other := typeDecl("org.acme.Repo", "Bean")

	var journal []string
	h := newRecordingHandler(&journal)
	h.masquerade["org.acme.RepoImpl"] = "org.acme.Repo"

	p := newTestProcessor(newFakeScanner(impl, other), ProcessingContext{})
	p.Register(typeOnly("Bean"), h)

	res, err := p.Process()
	require.NoError(t, err)

	require.Len(t, res.Plan.Units, 1)
	u := res.Plan.Units[0]
	assert.Equal(t, graph.Key("org.acme.Repo"), u.Key)
	require.Len(t, u.Items, 2)
	assert.Equal(t, "org.acme.RepoImpl", u.Items[0].(*Action).String())
	assert.Equal(t, "org.acme.Repo", u.Items[1].(*Action).String())
	assert.Len(t, res.Records, 2)
}

func TestProcess_AddBindingRunsInNextBatch(t *testing.T) {
	repo := typeDecl("org.acme.Repo", "Bean")
	db := typeDecl("org.acme.DB")

	var journal []string
	h := newRecordingHandler(&journal)
	h.deps["org.acme.Repo"] = []string{"org.acme.DB"}
	h.onDeps = func(ctrl DependencyControl, inst *Instance) {
		ctrl.AddBinding(typeOnly("Bean"), db)
		ctrl.AddBinding(typeOnly("Bean"), db)
	}

	p := newTestProcessor(newFakeScanner(repo, db), ProcessingContext{})
	p.Register(typeOnly("Bean"), h)

	res, err := p.Process()
	require.NoError(t, err)

	assert.Equal(t, 2, res.Plan.Discovery.Batches)
	assert.Len(t, res.Plan.Discovery.Entries, 2)
	assert.Equal(t, []string{"org.acme.DB", "org.acme.Repo"}, res.Plan.Keys())
	assert.True(t, p.Injection().IsAdded("org.acme.DB"))

	// The added binding uses a provided handler that declines to act.
	assert.NotContains(t, journal, "handle:org.acme.DB@Bean")
	assert.Equal(t, 1, res.Suppressed)
	for _, rec := range res.Records {
		assert.Equal(t, rec.Unit != "org.acme.DB", rec.Handled, rec.Unit)
	}
	injector, ok := p.Injection().Injector("org.acme.DB")
	require.True(t, ok)
	assert.Empty(t, injector.Handled)
}

func TestProcess_RepeatedTargetRunsHooksOnce(t *testing.T) {
	var journal []string
	h := newRecordingHandler(&journal)

	p := newTestProcessor(newFakeScanner(typeDecl("org.acme.T", "A")), ProcessingContext{})
	p.Register(ir.AnnotationDecl{Name: "A", Targets: []ir.ElementKind{ir.KindType, ir.KindType}}, h)

	res, err := p.Process()
	require.NoError(t, err)

	assert.Len(t, res.Records, 1)
	assert.Equal(t, []string{
		"register:org.acme.T@A",
		"deps:org.acme.T@A",
		"handle:org.acme.T@A",
	}, journal)
}

func TestProcess_BatchQuota(t *testing.T) {
	build := func(maxBatches int) *Processor {
		var journal []string
		h := newRecordingHandler(&journal)
		h.onDeps = func(ctrl DependencyControl, inst *Instance) {
			ctrl.AddBinding(typeOnly("Bean"), typeDecl("org.acme.Added"))
		}
		p := newTestProcessor(newFakeScanner(typeDecl("org.acme.Seed", "Bean")), ProcessingContext{}, WithMaxBatches(maxBatches))
		p.Register(typeOnly("Bean"), h)
		return p
	}

	_, err := build(1).Plan()
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.True(t, IsBatchesExceededError(err))

	plan, err := build(2).Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"org.acme.Seed", "org.acme.Added"}, plan.Keys())
}

func TestProcess_CycleFailsWithoutExecuting(t *testing.T) {
	t1 := typeDecl("org.acme.T1", "A")
	t2 := typeDecl("org.acme.T2", "A")

	var journal []string
	h := newRecordingHandler(&journal)
	h.deps["org.acme.T1"] = []string{"org.acme.T2"}
	h.deps["org.acme.T2"] = []string{"org.acme.T1"}

	p := newTestProcessor(newFakeScanner(t1, t2), ProcessingContext{})
	p.Register(typeOnly("A"), h)

	res, err := p.Process()
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsCycleError(err))
	assert.True(t, graph.IsCycleError(err))
	assert.Equal(t, "CYCLE_DETECTED", ErrorCode(err))
	assert.Contains(t, err.Error(), "org.acme.T1 -> org.acme.T2 -> org.acme.T1")

	for _, line := range journal {
		assert.NotContains(t, line, "handle:")
	}
	assert.Empty(t, p.Injection().Types())
}

func TestProcess_HandlerErrorAbortsRemainingPlan(t *testing.T) {
	t1 := typeDecl("org.acme.T1", "A")
	t2 := typeDecl("org.acme.T2", "A")
	t3 := typeDecl("org.acme.T3", "A")

	var journal []string
	h := newRecordingHandler(&journal)
	h.failOn["org.acme.T2"] = PhaseHandle

	p := newTestProcessor(newFakeScanner(t1, t2, t3), ProcessingContext{})
	p.Register(typeOnly("A"), h)

	res, err := p.Process()
	require.Error(t, err)

	var he *HandlerError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, PhaseHandle, he.Phase)
	assert.Equal(t, "org.acme.T2", he.Element)
	assert.Equal(t, "A", he.Annotation)
	assert.EqualError(t, he.Err, "boom in handle")
	assert.Equal(t, "HANDLER_FAILED", ErrorCode(err))

	require.NotNil(t, res)
	assert.Equal(t, []string{"org.acme.T1"}, handledKeys(res))
	assert.NotContains(t, journal, "handle:org.acme.T3@A")
}

func TestProcess_DiscoveryErrorsNameElement(t *testing.T) {
	t1 := typeDecl("org.acme.T1", "A")

	var journal []string
	h := newRecordingHandler(&journal)
	h.failOn["org.acme.T1"] = PhaseCheckDependencies

	p := newTestProcessor(newFakeScanner(t1), ProcessingContext{})
	p.Register(typeOnly("A"), h)

	_, err := p.Plan()
	var he *HandlerError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, PhaseCheckDependencies, he.Phase)
	assert.Equal(t, "org.acme.T1", he.Element)
	assert.True(t, IsHandlerError(err))
}

func TestProcess_SuppressedIsNotAnError(t *testing.T) {
	t1 := typeDecl("org.acme.T1", "A")
	t2 := typeDecl("org.acme.T2", "A")

	var journal []string
	h := newRecordingHandler(&journal)
	h.suppress["org.acme.T1"] = true

	p := newTestProcessor(newFakeScanner(t1, t2), ProcessingContext{})
	p.Register(typeOnly("A"), h)

	res, err := p.Process()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Suppressed)
	require.Len(t, res.Records, 2)
	assert.False(t, res.Records[0].Handled)
	assert.True(t, res.Records[1].Handled)
	assert.Equal(t, int64(1), res.Records[0].Seq)
	assert.Equal(t, int64(2), res.Records[1].Seq)

	inj, ok := p.Injection().Injector("org.acme.T1")
	require.True(t, ok)
	assert.Empty(t, inj.Handled)
}

func TestProcess_ScopeLimitsScanning(t *testing.T) {
	in := typeDecl("org.acme.svc.Repo", "Bean")
	out := typeDecl("com.other.Repo", "Bean")

	var journal []string
	p := newTestProcessor(newFakeScanner(in, out), ProcessingContext{Packages: []string{"org.acme"}})
	p.Register(typeOnly("Bean"), newRecordingHandler(&journal))

	plan, err := p.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"org.acme.svc.Repo"}, plan.Keys())
}

func TestProcess_ConstructorTargetIsInert(t *testing.T) {
	var journal []string
	scanner := newFakeScanner(typeDecl("org.acme.T1", "Ctor"))
	p := newTestProcessor(scanner, ProcessingContext{})
	p.Register(ir.AnnotationDecl{Name: "Ctor", Targets: []ir.ElementKind{ir.KindConstructor}}, newRecordingHandler(&journal))

	plan, err := p.Plan()
	require.NoError(t, err)
	assert.Empty(t, plan.Units)
	assert.Empty(t, scanner.calls)
}

func TestProcess_DeterministicFingerprint(t *testing.T) {
	run := func() *Result {
		var journal []string
		h := newRecordingHandler(&journal)
		h.deps["org.acme.C"] = []string{"org.acme.A"}
		p := newTestProcessor(newFakeScanner(
			typeDecl("org.acme.C", "X"),
			typeDecl("org.acme.B", "X"),
			typeDecl("org.acme.A", "Y"),
		), ProcessingContext{})
		p.Register(typeOnly("X"), h)
		p.Register(typeOnly("Y"), h, ir.BeforeAnnotation("X"))
		res, err := p.Process()
		require.NoError(t, err)
		return res
	}

	first := run()
	assert.Equal(t, []string{"org.acme.A", "org.acme.C", "org.acme.B"}, first.Plan.Keys())
	for range 5 {
		again := run()
		assert.Equal(t, first.Fingerprint, again.Fingerprint)
		assert.Equal(t, first.Plan.Keys(), again.Plan.Keys())
	}
}

func TestProcess_UnknownDependencyIgnored(t *testing.T) {
	var journal []string
	h := newRecordingHandler(&journal)
	h.deps["org.acme.T1"] = []string{"org.acme.Missing", "org.acme.T1"}

	p := newTestProcessor(newFakeScanner(typeDecl("org.acme.T1", "A")), ProcessingContext{})
	p.Register(typeOnly("A"), h)

	res, err := p.Process()
	require.NoError(t, err)
	assert.Equal(t, []string{"org.acme.T1"}, handledKeys(res))

	desc := res.Plan.Describe()
	units := desc["units"].(ir.List)
	assert.Equal(t, ir.List{}, units[0].(ir.Object)["depends_on"])
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "RULE_CONFLICT", ErrorCode(NewRuleConflictError(errors.New("x"))))
	assert.Equal(t, "QUOTA_EXCEEDED", ErrorCode(NewQuotaError(&BatchesExceededError{Batches: 3, Limit: 2})))
	assert.Equal(t, "HANDLER_FAILED", ErrorCode(&HandlerError{Phase: PhaseHandle, Err: errors.New("x")}))
	assert.Equal(t, "ERROR", ErrorCode(errors.New("plain")))
}

package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/yongy146/dota-brain-sub002/internal/report"
	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

func finding(kind validate.Kind, hero string, build int, field string) validate.Finding {
	return validate.NewFinding(kind, validate.Location{Hero: hero, Build: build, Field: field}, "%s at %s", kind, field)
}

func TestAggregator_Transitions(t *testing.T) {
	t.Parallel()

	a := report.NewAggregator()
	if a.State() != report.StateNotStarted {
		t.Fatalf("initial state: %s", a.State())
	}
	if err := a.Collect(nil); !errors.Is(err, report.ErrInvalidTransition) {
		t.Errorf("collect before start: got %v", err)
	}
	if _, err := a.Complete(0, 0); !errors.Is(err, report.ErrInvalidTransition) {
		t.Errorf("complete before start: got %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := a.Start(); !errors.Is(err, report.ErrInvalidTransition) {
		t.Errorf("second start: got %v", err)
	}
	if _, err := a.Complete(1, 1); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if a.State() != report.StateCompleted {
		t.Errorf("state after complete: %s", a.State())
	}
	if _, err := a.Abort(validate.Fatal(validate.KindToolingError, errors.New("x"))); !errors.Is(err, report.ErrInvalidTransition) {
		t.Errorf("abort after complete: got %v", err)
	}
}

func TestAggregator_VerdictAndStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		findings     []validate.Finding
		wantVerdict  report.Verdict
		wantErrors   int
		wantWarnings int
	}{
		{name: "clean", wantVerdict: report.VerdictPass},
		{
			name:         "warnings only pass",
			findings:     []validate.Finding{finding(validate.KindBudgetUnderused, "sven", 0, "items.starting")},
			wantVerdict:  report.VerdictPass,
			wantWarnings: 1,
		},
		{
			name: "one error fails",
			findings: []validate.Finding{
				finding(validate.KindBudgetUnderused, "sven", 0, "items.starting"),
				finding(validate.KindUnknownItem, "sven", 0, "items.core[1]"),
			},
			wantVerdict:  report.VerdictFail,
			wantErrors:   1,
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := report.NewAggregator()
			if err := a.Start(); err != nil {
				t.Fatal(err)
			}
			if err := a.Collect(tt.findings); err != nil {
				t.Fatal(err)
			}
			r, err := a.Complete(3, 7)
			if err != nil {
				t.Fatal(err)
			}
			if r.Verdict != tt.wantVerdict {
				t.Errorf("verdict: got %s, want %s", r.Verdict, tt.wantVerdict)
			}
			want := report.Stats{Heroes: 3, Records: 7, Errors: tt.wantErrors, Warnings: tt.wantWarnings}
			if diff := cmp.Diff(want, r.Stats); diff != "" {
				t.Errorf("stats (-want +got):\n%s", diff)
			}
			if r.Findings == nil {
				t.Error("findings must be an empty list, not nil")
			}
			if r.Passed() != (tt.wantVerdict == report.VerdictPass) {
				t.Error("Passed disagrees with verdict")
			}
		})
	}
}

func TestAggregator_Abort(t *testing.T) {
	t.Parallel()

	a := report.NewAggregator()
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	if err := a.Collect([]validate.Finding{finding(validate.KindUnknownItem, "sven", 0, "items.starting[0]")}); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Abort(finding(validate.KindUnknownItem, "sven", 0, "x")); err == nil {
		t.Error("abort with a non-fatal finding must fail")
	}

	fatal := validate.Fatal(validate.KindCatalogueLoad, errors.New("items.yaml: cost is required"))
	r, err := a.Abort(fatal)
	if err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if r.State != report.StateAborted || r.Verdict != report.VerdictError {
		t.Errorf("got state %s verdict %s", r.State, r.Verdict)
	}
	if diff := cmp.Diff([]validate.Finding{fatal}, r.Findings); diff != "" {
		t.Errorf("aborted report must only hold the fatal finding (-want +got):\n%s", diff)
	}
	if err := a.Collect(nil); !errors.Is(err, report.ErrInvalidTransition) {
		t.Errorf("collect after abort: got %v", err)
	}
}

func TestAggregator_CompleteRejectsFatal(t *testing.T) {
	t.Parallel()

	a := report.NewAggregator()
	_ = a.Start()
	_ = a.Collect([]validate.Finding{validate.Fatal(validate.KindToolingError, errors.New("boom"))})
	if _, err := a.Complete(0, 0); !errors.Is(err, report.ErrInvalidTransition) {
		t.Errorf("got %v", err)
	}
}

func TestSort_DeterministicOrder(t *testing.T) {
	t.Parallel()

	off2, off7 := 2, 7
	blurb := func(off *int) validate.Finding {
		f := finding(validate.KindForbiddenCharacter, "sven", validate.HeroLevel, "blurb")
		f.Location.Offset = off
		return f
	}
	want := []validate.Finding{
		finding(validate.KindUnknownItem, "axe", 1, "items.core[0]"),
		blurb(&off2),
		blurb(&off7),
		finding(validate.KindCounterItemOverflow, "sven", validate.HeroLevel, "counterItems.laningPhase"),
		finding(validate.KindTalentOrder, "sven", 0, "abilities[9]"),
		finding(validate.KindUnknownAbility, "sven", 0, "abilities[9]"),
		finding(validate.KindTalentOrder, "sven", 0, "abilities[10]"),
		finding(validate.KindUnknownItem, "sven", 0, "items.starting[2]"),
		finding(validate.KindAbilityCount, "sven", 2, "abilities"),
	}

	// Feed the same findings in several worker splits and orders.
	for _, split := range [][]int{{0, 9}, {5, 4}, {8, 1}} {
		shuffled := append(append([]validate.Finding{}, want[split[0]:]...), want[:split[0]]...)
		for i, j := 0, len(shuffled)-1; i < j; i, j = i+1, j-1 {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}
		a := report.NewAggregator()
		_ = a.Start()
		_ = a.Collect(shuffled[:split[1]], shuffled[split[1]:])
		r, err := a.Complete(2, 4)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, r.Findings); diff != "" {
			t.Errorf("split %v: order (-want +got):\n%s", split, diff)
		}
	}
}

func TestRender_Idempotent(t *testing.T) {
	t.Parallel()

	build := func() *report.Report {
		a := report.NewAggregator()
		_ = a.Start()
		_ = a.Collect(
			[]validate.Finding{finding(validate.KindUnknownItem, "sven", 0, "items.starting[1]")},
			[]validate.Finding{finding(validate.KindBudgetUnderused, "axe", 0, "items.starting")},
		)
		r, _ := a.Complete(2, 2)
		return r
	}

	for _, f := range []report.Format{report.FormatText, report.FormatJSON, report.FormatYAML} {
		var a, b bytes.Buffer
		if err := report.Render(&a, build(), f); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if err := report.Render(&b, build(), f); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if a.String() != b.String() {
			t.Errorf("%s output differs between runs:\n%s\n---\n%s", f, a.String(), b.String())
		}
	}
}

func TestRender_Text(t *testing.T) {
	t.Parallel()

	f := finding(validate.KindDuplicateGuideLink, "sven", 0, "steamGuideLinkId")
	f.Message = "steamGuideLinkId 2699915996 is already used by axe/builds[0].steamGuideLinkId"
	f.Related = []validate.Location{{Hero: "axe", Build: 0, Field: "steamGuideLinkId"}}
	u := finding(validate.KindUnknownItem, "sven", 0, "items.starting[0]")
	u.Message = `unknown item "tangoo"`
	u.Suggestion = "tango"

	a := report.NewAggregator()
	_ = a.Start()
	_ = a.Collect([]validate.Finding{f, u})
	r, _ := a.Complete(2, 3)

	var buf bytes.Buffer
	if err := report.Render(&buf, r, report.FormatText); err != nil {
		t.Fatal(err)
	}
	want := `FAIL: 2 errors, 0 warnings in 2 heroes, 3 builds
error   UnknownItemError sven/builds[0].items.starting[0]: unknown item "tangoo"
        did you mean "tango"?
error   DuplicateGuideLinkError sven/builds[0].steamGuideLinkId: steamGuideLinkId 2699915996 is already used by axe/builds[0].steamGuideLinkId
        see axe/builds[0].steamGuideLinkId
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text output (-want +got):\n%s", diff)
	}
}

func TestRender_Aborted(t *testing.T) {
	t.Parallel()

	a := report.NewAggregator()
	_ = a.Start()
	r, _ := a.Abort(validate.Fatal(validate.KindValidationTimedOut, errors.New("validation timed out after 1s")))

	var buf bytes.Buffer
	if err := report.Render(&buf, r, report.FormatText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "ERROR: validation aborted\n") || !strings.Contains(out, "fatal   ValidationTimedOut -: validation timed out") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRender_StructuredRoundTrip(t *testing.T) {
	t.Parallel()

	off := 3
	f := finding(validate.KindForbiddenCharacter, "sven", validate.HeroLevel, "blurb")
	f.Location.Offset = &off
	a := report.NewAggregator()
	_ = a.Start()
	_ = a.Collect([]validate.Finding{f})
	r, _ := a.Complete(1, 1)

	var js bytes.Buffer
	if err := report.Render(&js, r, report.FormatJSON); err != nil {
		t.Fatal(err)
	}
	var fromJSON report.Report
	if err := json.Unmarshal(js.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json: %v", err)
	}
	if diff := cmp.Diff(*r, fromJSON); diff != "" {
		t.Errorf("json (-want +got):\n%s", diff)
	}

	var ys bytes.Buffer
	if err := report.Render(&ys, r, report.FormatYAML); err != nil {
		t.Fatal(err)
	}
	var fromYAML report.Report
	if err := yaml.Unmarshal(ys.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if diff := cmp.Diff(*r, fromYAML); diff != "" {
		t.Errorf("yaml (-want +got):\n%s", diff)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]report.Format{"": report.FormatText, "JSON": report.FormatJSON, "yaml": report.FormatYAML} {
		got, err := report.ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := report.ParseFormat("xml"); !errors.Is(err, report.ErrUnknownFormat) {
		t.Errorf("xml: got %v", err)
	}
	if err := report.Render(&bytes.Buffer{}, &report.Report{}, "xml"); !errors.Is(err, report.ErrUnknownFormat) {
		t.Errorf("Render xml: got %v", err)
	}
}

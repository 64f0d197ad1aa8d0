package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/mimprep/profile-audit/internal/report"
)

const sampleRow = `{
  "first_name": "Jeanne",
  "last_name": "Martin",
  "linkedin_url": "https://linkedin.com/in/jeanne",
  "banner_critere_1_titre": "Cohérence (5)",
  "banner_critere_1_points_obtenus": 5,
  "banner_critere_1_points_maximum": 5,
  "banner_critere_2_titre": "Lisibilité (5)",
  "banner_critere_2_points_obtenus": 2,
  "banner_critere_2_points_maximum": 5,
  "banner_critere_2_explication": "Texte trop petit",
  "banner_total_points": 7,
  "banner_total_maximum": 10,
  "banner_total_categories": 2,
  "global_total_points": 7,
  "global_total_maximum": 10
}`

type harness struct {
	t   *testing.T
	dsn string
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{t: t, dir: dir, dsn: "file:" + filepath.Join(dir, "audit.db") + "?_pragma=busy_timeout(5000)"}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--db-driver", "sqlite", "--db-dsn", h.dsn, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) importSample(code string) {
	h.t.Helper()
	path := filepath.Join(h.dir, code+".json")
	require.NoError(h.t, os.WriteFile(path, []byte(sampleRow), 0o600))
	out := h.mustRun("import", code, path)
	assert.Contains(h.t, out, "imported "+code+" (7/10")
}

func TestImportAndShow(t *testing.T) {
	h := newHarness(t)
	h.importSample("ABC")

	out := h.mustRun("show", "ABC")
	assert.Contains(t, out, "Jeanne Martin")
	assert.Contains(t, out, "7/10")
	assert.Contains(t, out, "Texte trop petit")

	out = h.mustRun("show", "ABC", "--json")
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "ABC", rep.Code)
	assert.Equal(t, 7, rep.Global.Score)
	assert.Equal(t, 10, rep.Global.Max)
}

func TestShow_UnknownCode(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("show", "NOPE")
	require.Error(t, err)
}

func TestImport_RejectsBadFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o600))
	_, err := h.run("import", "ABC", path)
	require.Error(t, err)

	_, err = h.run("import", "ABC", filepath.Join(h.dir, "missing.json"))
	require.Error(t, err)
}

func TestReveal_SimulatesUntilDetail(t *testing.T) {
	h := newHarness(t)
	h.importSample("ABC")

	out := h.mustRun("reveal", "ABC", "--step", "500ms")
	assert.Contains(t, out, "t=0s")
	assert.Contains(t, out, "[detail_revealed]")
	assert.Contains(t, out, "complete at")
}

func TestListAndEvents(t *testing.T) {
	h := newHarness(t)
	h.importSample("ABC")
	h.importSample("DEF")

	out := h.mustRun("list", "--sort", "code", "--asc")
	abc, def := strings.Index(out, "ABC"), strings.Index(out, "DEF")
	require.True(t, abc >= 0 && def >= 0, out)
	assert.Less(t, abc, def)
	assert.Contains(t, out, "70.0")

	out = h.mustRun("list", "-q", "zzz")
	assert.Contains(t, out, "no results")

	out = h.mustRun("events", "--type", "ResultImported")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ABC")
	assert.Contains(t, lines[1], "DEF")

	out = h.mustRun("events", "--since", "1")
	assert.NotContains(t, out, "\tABC\t")
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.importSample("ABC")

	dest := filepath.Join(h.dir, "out")
	out := h.mustRun("export", "--out", dest)
	assert.Contains(t, out, "wrote 1 results")

	f, err := excelize.OpenFile(dest + ".xlsx")
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Results", "A2")
	require.NoError(t, err)
	assert.Equal(t, "ABC", v)
}

func TestHashPassword(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"hash-password"})
	cmd.SetIn(strings.NewReader("hunter2\n"))
	require.NoError(t, cmd.Execute())
	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
}

func TestBadDriver(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--db-driver", "mysql", "list"})
	require.Error(t, cmd.Execute())
}

func TestKind_CVUsesItsOwnTable(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "cv.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "candidate_first_name": "Lina",
  "candidate_target_flag": 2,
  "grand_total_awarded": 61,
  "grand_total_max": 100,
  "education_awarded_sum": 12,
  "education_max_sum": 20,
  "honors_tests_points_awarded": 3,
  "honors_tests_points_max": 10
}`), 0o600))

	out := h.mustRun("--kind", "cv", "import", "CV42", path)
	assert.Contains(t, out, "imported CV42 (61/100")

	_, err := h.run("show", "CV42")
	require.Error(t, err)

	out = h.mustRun("--kind", "cv", "show", "--json", "CV42")
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "cv", rep.Kind)
	require.Len(t, rep.Sections, 1)
	assert.Equal(t, "education", rep.Sections[0].Key)
	assert.Equal(t, 12, rep.Sections[0].Total.Score)
	require.NotNil(t, rep.Candidate)
	assert.True(t, rep.Candidate.HighPotential)
}

func TestKind_Unknown(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--kind", "resume", "show", "ABC")
	require.ErrorContains(t, err, "unknown kind")
}

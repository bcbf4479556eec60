package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/tf"
)

func testResult() *dynamo.Result {
	return &dynamo.Result{
		Times:      []float64{0, 0.1, 0.2, 1.0 / 3},
		Output:     []float64{0, 0.0046788401604445, 0.0175230963189, 0.0446249191},
		Amplitude:  1,
		Integrator: "exact",
	}
}

func testMeta() RunMetadata {
	plant := tf.MustNew([]float64{1}, []float64{1, 2, 1})
	return RunMetadata{
		Label:      "Kp=5",
		Plant:      RationalOf(plant),
		Gains:      controllers.Gains{Kp: 5, Ki: 0.5, Kd: 0.1},
		Integrator: "exact",
		Setpoint:   1,
		Tolerance:  0.02,
		Amplitude:  1,
		Metrics: map[string]float64{
			"overshoot_percent": 7.1,
			"rise_time":         math.NaN(),
			"settling_time":     10,
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "Kp-5_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID || meta.Label != "Kp=5" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Gains.Ki != 0.5 || meta.Points != 4 {
		t.Errorf("fields lost: %+v", meta)
	}
	if meta.Metrics["overshoot_percent"] != 7.1 {
		t.Errorf("expected overshoot 7.1, got %f", meta.Metrics["overshoot_percent"])
	}
	if _, ok := meta.Metrics["rise_time"]; ok {
		t.Error("non-finite metric should be dropped")
	}
	plant, err := meta.Plant.TransferFunction()
	if err != nil || plant.Order() != 2 {
		t.Errorf("plant not restored: %v %v", plant, err)
	}

	times, output, err := st.LoadResponse(runID)
	if err != nil {
		t.Fatalf("load response failed: %v", err)
	}
	want := testResult()
	for i := range want.Times {
		if times[i] != want.Times[i] || output[i] != want.Output[i] {
			t.Errorf("row %d: got (%v, %v), want (%v, %v)", i, times[i], output[i], want.Times[i], want.Output[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		id, err := st.Save(testMeta(), testResult())
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		ids[id] = true
	}
	if len(ids) != 3 {
		t.Errorf("expected unique ids, got %v", ids)
	}

	if err := os.Mkdir(filepath.Join(st.Dir(), "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.Before(runs[i-1].Timestamp) {
			t.Error("runs not sorted by timestamp")
		}
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testMeta(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	data, err := os.ReadFile(filepath.Join(runDir, "response.csv"))
	if err != nil {
		t.Fatal("response.csv not created")
	}
	if !strings.HasPrefix(string(data), "time,y\n0,0\n0.1,") {
		t.Errorf("unexpected csv content %q", data)
	}
}

func TestStoreSave_Mismatch(t *testing.T) {
	st := New(t.TempDir())
	res := testResult()
	res.Output = res.Output[:2]
	if _, err := st.Save(testMeta(), res); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStoreLoad_Missing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, _, err := st.LoadResponse("nope"); err == nil {
		t.Error("expected error for missing response")
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Kp=5":          "Kp-5",
		"Kd=0.1, Ki=1":  "Kd-0.1--Ki-1",
		"":              "run",
		"///":           "run",
		"step_response": "step-response",
	}
	for in, want := range tests {
		if got := slug(in); got != want {
			t.Errorf("slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []string{
		"",
		"time,y\n0,abc\n",
		"time,y\nx,1\n",
	}
	for _, in := range tests {
		r := csv.NewReader(strings.NewReader(in))
		if _, _, err := ReadCSV(r); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}

	r := csv.NewReader(strings.NewReader("time,y\n0,1,2\n"))
	r.FieldsPerRecord = -1
	if _, _, err := ReadCSV(r); err == nil {
		t.Error("expected error for a wide row")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, testMeta(), testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(data.Times) != 4 || len(data.Output) != 4 || data.Label != "Kp=5" {
		t.Errorf("unexpected export %+v", data)
	}
	if _, ok := data.Metrics["rise_time"]; ok {
		t.Error("non-finite metric exported")
	}
}
